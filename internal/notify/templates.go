package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"store-api/internal/model"
	"store-api/internal/pricing"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates renders the confirmation email bodies.
type Templates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

type confirmationData struct {
	*model.Order
	PaymentLink bool
}

func templateFuncs() map[string]any {
	return map[string]any{
		"price": func(amount int64) string {
			return pricing.FormatPrice(amount)
		},
		"exactPrice": func(amount int64) string {
			return pricing.FormatPrice(amount, pricing.WithMinorUnits())
		},
		"deliveryDate": func(code string) string {
			d, err := pricing.ParseDeliveryDateCode(code)
			if err != nil {
				return code
			}
			return d.Window
		},
	}
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.New("confirmation.html.tmpl").
		Funcs(htmltemplate.FuncMap(templateFuncs())).
		ParseFS(templateFS, "templates/confirmation.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}

	text, err := texttemplate.New("confirmation.txt.tmpl").
		Funcs(texttemplate.FuncMap(templateFuncs())).
		ParseFS(templateFS, "templates/confirmation.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}

	return &Templates{html: html, text: text}, nil
}

// RenderConfirmation returns the html and plain text bodies for order.
func (t *Templates) RenderConfirmation(order *model.Order) (string, string, error) {
	_, isLink := order.Payment.(*model.PaymentLinkPayment)
	data := confirmationData{Order: order, PaymentLink: isLink}

	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("failed to render html confirmation: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("failed to render text confirmation: %w", err)
	}

	return html.String(), text.String(), nil
}
