package cart

import (
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// EmptyMessage is shown in place of the item list when the ledger has no items.
const EmptyMessage = "Cart is empty"

// LineView is the presentation form of one item.
type LineView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// View is everything a renderer needs to draw the cart.
type View struct {
	Items    []LineView     `json:"items"`
	Empty    bool           `json:"empty"`
	Subtotal string         `json:"subtotal"`
	Tax      string         `json:"tax"`
	Total    string         `json:"total"`
	Notice   *common.Notice `json:"notice,omitempty"`
}

// View snapshots the ledger with money formatted for display.
func (l *Ledger) View() View {
	totals := l.Totals()
	lines := make([]LineView, 0, len(l.items))
	for i, it := range l.items {
		lines = append(lines, LineView{Index: i, Name: it.Name, Price: pricing.Format(it.Price)})
	}
	v := View{
		Items:    lines,
		Empty:    len(lines) == 0,
		Subtotal: pricing.Format(totals.Subtotal),
		Tax:      pricing.Format(totals.Tax),
		Total:    pricing.Format(totals.Total),
	}
	if n, ok := l.Notice(); ok {
		v.Notice = &n
	}
	return v
}
