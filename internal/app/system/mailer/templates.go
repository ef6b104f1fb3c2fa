// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Site names the app in outgoing mail and holds the frontend base URL
// that links point at.
type Site struct {
	Name string
	URL  string
}

// Link joins path onto the site URL, or returns "" when no URL is set.
func (s Site) Link(path string) string {
	if s.URL == "" {
		return ""
	}
	return strings.TrimRight(s.URL, "/") + "/" + strings.TrimLeft(path, "/")
}

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:560px;margin:0 auto;padding:24px">
<h2 style="color:#047857">{{.AppName}}</h2>
{{template "content" .}}
<p style="color:#6b7280;font-size:12px;margin-top:32px">This message was sent by {{.AppName}}.</p>
</body></html>`))

func render(content string, data any) string {
	t := template.Must(template.Must(layout.Clone()).New("content").Parse(content))
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return ""
	}
	return buf.String()
}

// WelcomeEmailData is sent after registration.
type WelcomeEmailData struct {
	AppName  string
	UserName string
	SiteURL  string
}

const welcomeHTML = `<p>Assalamu alaikum {{.UserName}},</p>
<p>Welcome to {{.AppName}}. You can now bookmark content, book sessions and ask questions.</p>
{{if .SiteURL}}<p><a href="{{.SiteURL}}">Visit {{.AppName}}</a></p>{{end}}`

func WelcomeEmail(d WelcomeEmailData) (textBody, htmlBody string) {
	textBody = fmt.Sprintf("Assalamu alaikum %s,\n\nWelcome to %s. You can now bookmark content, book sessions and ask questions.\n", d.UserName, d.AppName)
	if d.SiteURL != "" {
		textBody += "\n" + d.SiteURL + "\n"
	}
	return textBody, render(welcomeHTML, d)
}

// OrderLine is one row of an order confirmation.
type OrderLine struct {
	Name     string
	Quantity int
	Price    float64
}

// Subtotal is Price times Quantity.
func (l OrderLine) Subtotal() float64 { return l.Price * float64(l.Quantity) }

// OrderConfirmationData is sent when an order is placed.
type OrderConfirmationData struct {
	AppName       string
	UserName      string
	OrderID       string
	Lines         []OrderLine
	Total         float64
	PaymentMethod string
	OrderURL      string
}

const orderHTML = `<p>Assalamu alaikum {{.UserName}},</p>
<p>Thank you for your order <strong>#{{.OrderID}}</strong>.</p>
<table style="border-collapse:collapse;width:100%">
{{range .Lines}}<tr><td style="padding:4px 0">{{.Name}} x {{.Quantity}}</td><td style="text-align:right">{{printf "%.2f" .Subtotal}}</td></tr>
{{end}}<tr><td style="padding-top:8px"><strong>Total</strong></td><td style="text-align:right"><strong>{{printf "%.2f" .Total}} BDT</strong></td></tr>
</table>
<p>Payment: {{.PaymentMethod}}</p>
{{if .OrderURL}}<p><a href="{{.OrderURL}}">View your order</a></p>{{end}}`

func OrderConfirmationEmail(d OrderConfirmationData) (textBody, htmlBody string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Assalamu alaikum %s,\n\nThank you for your order #%s.\n\n", d.UserName, d.OrderID)
	for _, l := range d.Lines {
		fmt.Fprintf(&b, "  %s x %d  %.2f\n", l.Name, l.Quantity, l.Subtotal())
	}
	fmt.Fprintf(&b, "\nTotal: %.2f BDT\nPayment: %s\n", d.Total, d.PaymentMethod)
	if d.OrderURL != "" {
		fmt.Fprintf(&b, "\n%s\n", d.OrderURL)
	}
	return b.String(), render(orderHTML, d)
}

// QuestionAnsweredData is sent to the asker when an admin answers.
type QuestionAnsweredData struct {
	AppName     string
	UserName    string
	Question    string
	Answer      template.HTML // already sanitized
	AnswerText  string
	QuestionURL string
}

const answeredHTML = `<p>Assalamu alaikum {{.UserName}},</p>
<p>Your question has been answered.</p>
<blockquote style="border-left:3px solid #d1d5db;margin:0;padding-left:12px;color:#4b5563">{{.Question}}</blockquote>
<div style="margin-top:16px">{{.Answer}}</div>
{{if .QuestionURL}}<p><a href="{{.QuestionURL}}">Read it on the site</a></p>{{end}}`

func QuestionAnsweredEmail(d QuestionAnsweredData) (textBody, htmlBody string) {
	textBody = fmt.Sprintf("Assalamu alaikum %s,\n\nYour question has been answered.\n\nQ: %s\n\nA: %s\n", d.UserName, d.Question, d.AnswerText)
	if d.QuestionURL != "" {
		textBody += "\n" + d.QuestionURL + "\n"
	}
	return textBody, render(answeredHTML, d)
}
