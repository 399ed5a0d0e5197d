package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeightsTopKeepsInsertionOrderOnTies(t *testing.T) {
	w := NewWeights()
	w.Add("citrus", 1)
	w.Add("woody", 2)
	w.Add("floral", 1)
	w.Add("fresh", 1)
	w.Add("", 5)

	assert.Equal(t, []string{"woody", "citrus", "floral"}, w.Top(3))
	assert.Equal(t, []string{"woody", "citrus", "floral", "fresh"}, w.Top(10))
	assert.Equal(t, 4, w.Len())
}

func TestRecencyMultiplier(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 2.0, RecencyMultiplier(now.Add(-24*time.Hour), now))
	assert.Equal(t, 1.5, RecencyMultiplier(now.Add(-60*24*time.Hour), now))
	assert.Equal(t, 1.0, RecencyMultiplier(now.Add(-200*24*time.Hour), now))
}

func TestRatingBoost(t *testing.T) {
	assert.Equal(t, 1.0, RatingBoost(4.8, 0))
	assert.InDelta(t, 1.5, RatingBoost(5, 10), 1e-9)
	assert.InDelta(t, 1.3, RatingBoost(3, 2), 1e-9)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(500))
}

func TestRank(t *testing.T) {
	sig := NewSignals()
	sig.Tags.Add("lavender", 3)
	sig.Tags.Add("calming", 2)
	sig.Tags.Add("citrus", 1)
	sig.Categories.Add("essential-oils", 2)
	sig.Categories.Add("candles", 1)
	topTags := sig.Tags.Top(DefaultTopTags)
	topCats := sig.Categories.Top(DefaultTopCategories)

	candidates := []Candidate{
		{ProductID: 1, Tags: []string{"citrus"}, Category: "diffusers"},                               // 1
		{ProductID: 2, Tags: []string{"lavender", "calming"}, Category: "essential-oils"},             // 7
		{ProductID: 3, Tags: []string{"lavender"}, Category: "candles", AvgRating: 5, ReviewCount: 4}, // 4 × 1.5 = 6
		{ProductID: 4, Tags: []string{"woody"}, Category: "bath"},                                     // 不匹配
		{ProductID: 5, Tags: []string{"calming"}, Category: "diffusers"},                              // 2
		{ProductID: 6, Tags: []string{"calming"}, Category: "diffusers"},                              // 2，保持候选顺序
	}

	ranked := Rank(candidates, sig, topTags, topCats, 4)
	ids := make([]uint, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ProductID)
	}
	assert.Equal(t, []uint{2, 3, 5, 6}, ids)
	assert.InDelta(t, 7, ranked[0].Score, 1e-9)
	assert.InDelta(t, 6, ranked[1].Score, 1e-9)
}
