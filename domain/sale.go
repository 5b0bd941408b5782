package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SaleTimeLayout is the fixed textual format sale timestamps use on disk.
const SaleTimeLayout = "2006-01-02 15:04:05"

// SaleTime wraps time.Time to persist in the fixed layout instead of RFC 3339.
type SaleTime struct {
	time.Time
}

func (t SaleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(SaleTimeLayout))
}

func (t *SaleTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(SaleTimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// SaleItem is one aggregated line of a sale. Fields are copied from the
// product at sale time so the record stays accurate if the product is later
// edited or deleted.
type SaleItem struct {
	Code      string          `json:"codigo"`
	Name      string          `json:"nombre"`
	Quantity  decimal.Decimal `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precio_unitario"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Unit      string          `json:"unidad"`
}

// Sale is one committed transaction. It is constructed empty, filled by
// AddItem, finalized with ApplyDiscount, and never mutated after being
// appended to the history.
type Sale struct {
	ID            int             `json:"id"`
	Date          SaleTime        `json:"fecha"`
	Items         []SaleItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Discount      decimal.Decimal `json:"descuento"`
	PaymentMethod string          `json:"metodo_pago,omitempty"`
	PaymentDetail string          `json:"detalle_pago,omitempty"`
}

// AddItem snapshots the product into a line item and accumulates the running
// total. The subtotal is price × quantity, unrounded; rounding happens once,
// in ApplyDiscount.
func (s *Sale) AddItem(p Product, qty decimal.Decimal) {
	subtotal := p.Price.Mul(qty)
	s.Items = append(s.Items, SaleItem{
		Code:      p.Code,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.Price,
		Subtotal:  subtotal,
		Unit:      p.Unit.Name,
	})
	s.Total = s.Total.Add(subtotal)
}

var hundred = decimal.NewFromInt(100)

// ApplyDiscount reduces the accumulated total by the given percentage and
// rounds the result, half away from zero, to the whole currency unit. It is
// applied exactly once per sale, after the last item.
func (s *Sale) ApplyDiscount(discount decimal.Decimal) {
	s.Discount = discount
	s.Total = s.Total.Mul(hundred.Sub(discount)).Div(hundred).Round(0)
}

// SaleLog is the append-only sale history. Records, once appended, are never
// reordered or rewritten.
type SaleLog interface {
	Append(ctx context.Context, sale Sale) error
	All(ctx context.Context) ([]Sale, error)
	// NextID recomputes max(id)+1 from the persisted history on every call,
	// so out-of-band edits to the file are respected. Records without a
	// well-formed positive integer id count as 0.
	NextID(ctx context.Context) (int, error)
}
