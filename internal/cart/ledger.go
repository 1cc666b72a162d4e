package cart

import (
	"strings"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Item is a single line in the ledger. Items are never modified after creation.
type Item struct {
	Name  string
	Price pricing.Money
}

// Ledger is the ordered collection of cart items plus the standing checkout
// message. Totals are always derived from the items.
//
// A Ledger is not safe for concurrent use; its owner serialises access.
type Ledger struct {
	items  []Item
	notice *common.Notice
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// AddItem parses priceText and appends a new item. It reports false, leaving the
// ledger untouched, when the name is blank or the price is not a non-negative number.
func (l *Ledger) AddItem(name, priceText string) bool {
	price, ok := pricing.ParsePrice(priceText)
	if !ok {
		return false
	}
	return l.Add(name, price)
}

// Add appends an item with an already parsed price.
func (l *Ledger) Add(name string, price pricing.Money) bool {
	name = strings.TrimSpace(name)
	if name == "" || price.IsNegative() {
		return false
	}
	l.items = append(l.items, Item{Name: name, Price: price})
	l.notice = nil
	return true
}

// RemoveItem deletes the item at index keeping the order of the rest. Indexes
// outside [0, Len()) are ignored and report false.
func (l *Ledger) RemoveItem(index int) bool {
	if index < 0 || index >= len(l.items) {
		return false
	}
	l.items = append(l.items[:index:index], l.items[index+1:]...)
	l.notice = nil
	return true
}

// Len returns the number of items.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Items returns a copy of the items in insertion order.
func (l *Ledger) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Totals derives subtotal, tax and total from the current items.
func (l *Ledger) Totals() pricing.Summary {
	prices := make([]pricing.Money, 0, len(l.items))
	for _, it := range l.items {
		prices = append(prices, it.Price)
	}
	return pricing.Compute(prices)
}

// Reset drops every item. The standing notice is left for the caller to set.
func (l *Ledger) Reset() {
	l.items = nil
}

// Notice returns the standing checkout message, if any.
func (l *Ledger) Notice() (common.Notice, bool) {
	if l.notice == nil {
		return common.Notice{}, false
	}
	return *l.notice, true
}

// SetNotice stores n until the next add or remove.
func (l *Ledger) SetNotice(n common.Notice) {
	l.notice = &n
}
