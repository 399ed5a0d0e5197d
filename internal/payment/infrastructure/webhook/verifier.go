// Package webhook 校验并解析支付服务的 webhook 回调
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/wyfcoding/aromastore/internal/payment/domain"
)

// SignatureHeader 签名请求头
const SignatureHeader = "Stripe-Signature"

// Verifier 校验 "t=<unix>,v1=<hex>" 形式的签名
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier 创建校验器，tolerance 为 0 时不校验时间戳
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Sign 计算签名头，测试与本地联调使用
func Sign(secret string, payload []byte, ts time.Time) string {
	t := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + t + ",v1=" + compute([]byte(secret), t, payload)
}

func compute(secret []byte, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 校验签名并解析事件
func (v *Verifier) Verify(payload []byte, header string) (*domain.WebhookEvent, error) {
	var (
		ts   string
		sigs []string
	)
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = val
		case "v1":
			sigs = append(sigs, val)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return nil, domain.ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidSignature
	}
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(unix, 0))
		if age > v.tolerance || age < -v.tolerance {
			return nil, domain.ErrInvalidSignature.WithMessage("webhook timestamp outside tolerance")
		}
	}

	expected := []byte(compute(v.secret, ts, payload))
	matched := false
	for _, s := range sigs {
		if hmac.Equal(expected, []byte(s)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, domain.ErrInvalidSignature
	}
	return Parse(payload)
}

// Parse 读取事件字段
func Parse(payload []byte) (*domain.WebhookEvent, error) {
	if !gjson.ValidBytes(payload) {
		return nil, domain.ErrInvalidSignature.WithMessage("malformed webhook payload")
	}
	root := gjson.ParseBytes(payload)
	obj := root.Get("data.object")
	evt := &domain.WebhookEvent{
		ID:             root.Get("id").String(),
		Type:           root.Get("type").String(),
		IntentID:       obj.Get("id").String(),
		Status:         domain.IntentStatus(obj.Get("status").String()),
		AmountMinor:    obj.Get("amount").Int(),
		FailureMessage: obj.Get("last_payment_error.message").String(),
		Metadata:       map[string]string{},
	}
	obj.Get("metadata").ForEach(func(k, v gjson.Result) bool {
		evt.Metadata[k.String()] = v.String()
		return true
	})
	return evt, nil
}
