package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	PriceAtAdd decimal.Decimal `json:"price_at_add"`
	Qty        int             `json:"qty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Cart is the per-user collection of pending line items.
// Totals are derived; call Recalculate after every mutation.
type Cart struct {
	UserID    string          `json:"user_id"`
	Items     []CartItem      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Pricing holds the shipping and tax rules applied to a cart.
type Pricing struct {
	FreeShippingOver decimal.Decimal
	FlatShipping     decimal.Decimal
	TaxRate          decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingOver: decimal.NewFromInt(50),
		FlatShipping:     decimal.NewFromInt(5),
		TaxRate:          decimal.NewFromFloat(0.10),
	}
}

// MaxLineQty caps the quantity of a single cart line.
const MaxLineQty = 999

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Contains(productID string) bool { return c.indexOf(productID) >= 0 }

// Add increments an existing line, keeping its original price, or appends item with qty.
// Line quantities saturate at MaxLineQty.
func (c *Cart) Add(item CartItem, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := c.indexOf(item.ProductID); i >= 0 {
		c.Items[i].Qty = capQty(c.Items[i].Qty, qty)
		return
	}
	item.Qty = capQty(0, qty)
	c.Items = append(c.Items, item)
}

// SetQty sets the quantity of a line; qty <= 0 removes it. Missing lines are ignored.
func (c *Cart) SetQty(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Qty = capQty(0, qty)
	}
}

func capQty(have, add int) int {
	if have >= MaxLineQty || add >= MaxLineQty-have {
		return MaxLineQty
	}
	return have + add
}

func (c *Cart) Remove(productID string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// Clear empties the cart and zeroes its totals.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Subtotal = decimal.Zero
	c.Shipping = decimal.Zero
	c.Tax = decimal.Zero
	c.Total = decimal.Zero
}

// Recalculate derives every line subtotal and the cart totals from scratch.
func (c *Cart) Recalculate(p Pricing) {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	subtotal := decimal.Zero
	for i := range c.Items {
		it := &c.Items[i]
		it.Subtotal = it.PriceAtAdd.Mul(decimal.NewFromInt(int64(it.Qty)))
		subtotal = subtotal.Add(it.Subtotal)
	}
	if len(c.Items) == 0 {
		c.Clear()
		return
	}
	shipping := p.FlatShipping
	if subtotal.GreaterThan(p.FreeShippingOver) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)

	c.Subtotal = subtotal
	c.Shipping = shipping
	c.Tax = tax
	c.Total = subtotal.Add(shipping).Add(tax)
}
