package receipt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/visheshtachauhan/aharic-orders/internal/domain"
)

// Renderer produces a printable plain-text kitchen ticket for an order.
type Renderer struct {
	tmpl *template.Template
}

const ticketTemplate = `ORDER {{shortID .ID}}  {{.Table}}
{{.CreatedAt.Format "02 Jan 2006 15:04"}}
--------------------------------
{{range .Items -}}
{{printf "%-22s" (itemLabel .)}} {{money (lineTotal .)}}
{{end -}}
--------------------------------
TOTAL {{money .Amount}}
Status: {{.Status}} / {{.PaymentStatus}}
{{- if .SpecialInstructions}}
Note: {{.SpecialInstructions}}
{{- end}}
`

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("ticket").Funcs(template.FuncMap{
		"shortID":   shortID,
		"money":     func(d decimal.Decimal) string { return d.StringFixed(2) },
		"lineTotal": lineTotal,
		"itemLabel": itemLabel,
	}).Parse(ticketTemplate)
	if err != nil {
		return nil, fmt.Errorf("template.Parse: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(order domain.Order) (string, error) {
	var sb strings.Builder

	if err := r.tmpl.Execute(&sb, order); err != nil {
		return "", fmt.Errorf("tmpl.Execute: %w", err)
	}

	return sb.String(), nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func lineTotal(item domain.OrderItem) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func itemLabel(item domain.OrderItem) string {
	return fmt.Sprintf("%dx %s", item.Quantity, item.Name)
}
