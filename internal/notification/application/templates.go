package application

import (
	"bytes"
	"fmt"
	"text/template"
)

// 邮件模板名
const (
	TplOrderPlaced         = "order_placed"
	TplOrderStatusChanged  = "order_status_changed"
	TplSubscriptionRenewed = "subscription_renewed"
	TplRenewalFailed       = "subscription_payment_failed"
	TplWelcome             = "welcome"
)

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) mailTemplate {
	return mailTemplate{
		subject: template.Must(template.New(name + ".subject").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Parse(body)),
	}
}

var templates = map[string]mailTemplate{
	TplOrderPlaced: mustTemplate(TplOrderPlaced,
		`Order {{.OrderNo}} confirmed`,
		`Hi {{.Name}},

Thank you for your order {{.OrderNo}}.
{{range .Items}}
  {{.Quantity}} x {{.ProductName}} ({{.VariantName}})  {{.LineTotal.StringFixed 2}}{{end}}

Total: {{.Total.StringFixed 2}}
{{- if gt .PointsEarned 0}}
You earned {{.PointsEarned}} loyalty points.{{end}}

We'll let you know when it ships.
`),
	TplOrderStatusChanged: mustTemplate(TplOrderStatusChanged,
		`Order {{.OrderNo}} is now {{.Status}}`,
		`Hi {{.Name}},

Your order {{.OrderNo}} changed from {{.From}} to {{.Status}}.
{{- if .TrackingNumber}}
Tracking number: {{.TrackingNumber}}{{end}}
{{- if .Reason}}
Reason: {{.Reason}}{{end}}
`),
	TplSubscriptionRenewed: mustTemplate(TplSubscriptionRenewed,
		`Your subscription has been renewed`,
		`Hi {{.Name}},

Your subscription #{{.SubscriptionID}} was renewed as order {{.OrderNo}} for {{.Total.StringFixed 2}}.
Next delivery will be billed on {{.NextBillingAt.Format "2006-01-02"}}.
`),
	TplRenewalFailed: mustTemplate(TplRenewalFailed,
		`We couldn't renew your subscription`,
		`Hi {{.Name}},

We could not charge your saved payment method for subscription #{{.SubscriptionID}} (attempt {{.Attempts}}).
{{- if .Paused}}
The subscription is paused. Update your payment method and resume it to continue deliveries.
{{- else}}
We'll try again tomorrow.{{end}}
`),
	TplWelcome: mustTemplate(TplWelcome,
		`Welcome to Aroma Store`,
		`Hi {{.Name}},

Welcome! Take our scent quiz to find blends picked for you.
`),
}

// Render 渲染主题与正文
func Render(name string, data any) (string, string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}
	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subject.String(), body.String(), nil
}
