// Package domain defines core business types and interfaces.
package domain

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Data files carry bare JSON numbers, not quoted decimals.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultStockMinimum is applied when a stored product carries no
// stock_minimo field.
var DefaultStockMinimum = decimal.NewFromInt(5)

// Category classifies a product ("Lácteos", "Abarrotes", ...).
type Category struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// UnmarshalJSON accepts both the structured form and the legacy bare-string
// form ("Lácteos"), collapsing to the struct immediately.
func (c *Category) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*c = Category{Name: name}
		return nil
	}
	type alias Category
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Category(a)
	return nil
}

func (c Category) String() string { return c.Name }

// Unit is a product's unit of measure. The unit decides the numeric
// discipline of every quantity attached to the product: continuous units
// permit one decimal place, discrete units require whole numbers.
type Unit struct {
	Name         string `json:"nombre"`
	Abbreviation string `json:"abreviatura,omitempty"`
}

// continuousUnits are the units sold by weight; everything else
// ("unidades", "mL", ...) is counted in whole numbers.
var continuousUnits = map[string]bool{
	"kg":         true,
	"kilo":       true,
	"kilos":      true,
	"kilogramo":  true,
	"kilogramos": true,
}

// Continuous reports whether quantities in this unit may carry a fraction
// (one decimal place).
func (u Unit) Continuous() bool {
	return continuousUnits[strings.ToLower(u.Name)] ||
		continuousUnits[strings.ToLower(u.Abbreviation)]
}

// UnmarshalJSON accepts both the structured form and the legacy bare-string
// form ("kg").
func (u *Unit) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*u = Unit{Name: name}
		return nil
	}
	type alias Unit
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*u = Unit(a)
	return nil
}

func (u Unit) String() string { return u.Name }

// Product represents an inventory product. Code is the stable unique key and
// is immutable after registration.
type Product struct {
	Code         string          `json:"codigo"`
	Name         string          `json:"nombre"`
	Price        decimal.Decimal `json:"precio"`
	Stock        decimal.Decimal `json:"stock"`
	Category     Category        `json:"categoria"`
	Unit         Unit            `json:"unidad"`
	StockMinimum decimal.Decimal `json:"stock_minimo"`
	ImagePath    string          `json:"image_path,omitempty"`
}

// LowStock reports whether the product needs restocking. A product exactly
// at its minimum already counts as low.
func (p Product) LowStock() bool {
	return p.Stock.LessThanOrEqual(p.StockMinimum)
}

// UnmarshalJSON reconstructs a product from storage, applying defaults and
// coercing legacy data that violates the unit discipline.
func (p *Product) UnmarshalJSON(b []byte) error {
	type alias Product
	a := alias{
		Unit:         Unit{Name: "unidades"},
		StockMinimum: DefaultStockMinimum,
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = Product(a)
	p.coerceQuantities()
	return nil
}

// coerceQuantities repairs stored quantities that break the unit discipline:
// fractional stock on a discrete unit is rounded to the nearest integer with
// a correction notice; continuous quantities keep one decimal place.
func (p *Product) coerceQuantities() {
	if p.Unit.Continuous() {
		p.Stock = p.Stock.Round(1)
		p.StockMinimum = p.StockMinimum.Round(1)
		return
	}
	if !p.Stock.IsInteger() {
		fixed := p.Stock.Round(0)
		slog.Warn("corrected fractional stock on discrete unit",
			"codigo", p.Code, "nombre", p.Name,
			"stock", p.Stock.String(), "corregido", fixed.String())
		p.Stock = fixed
	}
	if !p.StockMinimum.IsInteger() {
		p.StockMinimum = p.StockMinimum.Round(0)
	}
}

// ValidateProduct checks a product before registration.
func ValidateProduct(p Product) error {
	if p.Code == "" {
		return NewInvalidProductError("codigo", "cannot be empty", p.Code)
	}
	if p.Name == "" {
		return NewInvalidProductError("nombre", "cannot be empty", p.Name)
	}
	if p.Price.IsNegative() {
		return NewInvalidProductError("precio", "must be non-negative", p.Price)
	}
	if p.Stock.IsNegative() {
		return NewInvalidProductError("stock", "must be non-negative", p.Stock)
	}
	if p.StockMinimum.IsNegative() {
		return NewInvalidProductError("stock_minimo", "must be non-negative", p.StockMinimum)
	}
	if !p.Unit.Continuous() {
		if !p.Stock.IsInteger() {
			return NewInvalidProductError("stock", "must be a whole number for discrete units", p.Stock)
		}
		if !p.StockMinimum.IsInteger() {
			return NewInvalidProductError("stock_minimo", "must be a whole number for discrete units", p.StockMinimum)
		}
	}
	return nil
}

// StockDirection selects the sign of a stock adjustment.
type StockDirection int

const (
	Increase StockDirection = iota
	Decrease
)

func (d StockDirection) String() string {
	if d == Decrease {
		return "restar"
	}
	return "agregar"
}

// Inventory is the storage interface for the product catalog. It mediates
// every read and mutation; AdjustStock is the only sanctioned way to change
// a product's stock.
type Inventory interface {
	Add(ctx context.Context, product Product) error
	Get(ctx context.Context, code string) (Product, error)
	// AdjustStock applies a positive amount in the given direction and
	// returns the updated product. Decrease fails closed when the amount
	// exceeds the current stock.
	AdjustStock(ctx context.Context, code string, amount decimal.Decimal, dir StockDirection) (Product, error)
	Find(ctx context.Context, term string) ([]Product, error)
	Available(ctx context.Context) ([]Product, error)
	LowStock(ctx context.Context) ([]Product, error)
	Remove(ctx context.Context, code string) error
	List(ctx context.Context) ([]Product, error)
	// NextCode returns one past the highest numeric code in use, "1" when
	// the catalog holds none.
	NextCode(ctx context.Context) (string, error)
}
