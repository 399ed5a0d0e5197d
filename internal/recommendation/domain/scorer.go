package domain

import (
	"sort"
	"time"
)

const (
	// DefaultLimit 未指定条数时返回的推荐数
	DefaultLimit = 6
	// MaxLimit 单次推荐条数上限
	MaxLimit = 24
	// DefaultTopTags 个性化推荐取偏好最高的标签数
	DefaultTopTags = 3
	// DefaultTopCategories 个性化推荐取偏好最高的分类数
	DefaultTopCategories = 2
)

// NormalizeLimit 缺省 6，上限 24
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Weights 按首次出现顺序记录的权重表
type Weights struct {
	keys   []string
	values map[string]float64
}

// NewWeights 创建权重表
func NewWeights() *Weights {
	return &Weights{values: make(map[string]float64)}
}

// Add 累加权重
func (w *Weights) Add(key string, v float64) {
	if key == "" {
		return
	}
	if _, ok := w.values[key]; !ok {
		w.keys = append(w.keys, key)
	}
	w.values[key] += v
}

// Get 读取权重
func (w *Weights) Get(key string) float64 { return w.values[key] }

// Len 键数量
func (w *Weights) Len() int { return len(w.keys) }

// Top 权重最高的 n 个键，同权重保持首次出现顺序
func (w *Weights) Top(n int) []string {
	keys := append([]string(nil), w.keys...)
	sort.SliceStable(keys, func(i, j int) bool { return w.values[keys[i]] > w.values[keys[j]] })
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Signals 偏好信号
type Signals struct {
	Tags       *Weights
	Categories *Weights
}

// NewSignals 创建空信号
func NewSignals() Signals {
	return Signals{Tags: NewWeights(), Categories: NewWeights()}
}

// Empty 没有任何信号
func (s Signals) Empty() bool { return s.Tags.Len() == 0 && s.Categories.Len() == 0 }

// AddProduct 把商品的标签与分类计入信号
func (s Signals) AddProduct(tags []string, category string, weight float64) {
	for _, t := range tags {
		s.Tags.Add(t, weight)
	}
	s.Categories.Add(category, weight)
}

// RecencyMultiplier 购买时间越近权重越高：30 天内 2.0，90 天内 1.5，其余 1.0
func RecencyMultiplier(orderedAt, now time.Time) float64 {
	age := now.Sub(orderedAt)
	switch {
	case age <= 30*24*time.Hour:
		return 2.0
	case age <= 90*24*time.Hour:
		return 1.5
	default:
		return 1.0
	}
}

// RatingBoost 评分加成 1 + 0.5×avg/5，没有评价时为 1
func RatingBoost(avg float64, reviews int) float64 {
	if reviews == 0 {
		return 1
	}
	return 1 + 0.5*avg/5
}

// Candidate 待打分商品
type Candidate struct {
	ProductID   uint
	Tags        []string
	Category    string
	AvgRating   float64
	ReviewCount int
}

// Scored 打分结果
type Scored struct {
	ProductID uint
	Score     float64
}

// Rank 按 top 标签与 top 分类为候选打分，稳定降序后截取 limit 个；不匹配任何 top 项的候选被丢弃
func Rank(candidates []Candidate, sig Signals, topTags, topCategories []string, limit int) []Scored {
	tagSet := make(map[string]struct{}, len(topTags))
	for _, t := range topTags {
		tagSet[t] = struct{}{}
	}
	catSet := make(map[string]struct{}, len(topCategories))
	for _, c := range topCategories {
		catSet[c] = struct{}{}
	}

	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score := 0.0
		matched := false
		for _, t := range c.Tags {
			if _, ok := tagSet[t]; ok {
				score += sig.Tags.Get(t)
				matched = true
			}
		}
		if _, ok := catSet[c.Category]; ok {
			score += sig.Categories.Get(c.Category)
			matched = true
		}
		if !matched {
			continue
		}
		out = append(out, Scored{ProductID: c.ProductID, Score: score * RatingBoost(c.AvgRating, c.ReviewCount)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
