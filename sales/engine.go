// Package sales implements the transactional sale engine: the only path
// through which a sale is committed against the inventory.
package sales

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"supermercado/domain"
)

// Line is one (product code, quantity) pair submitted by a caller. Repeated
// codes are aggregated into a single logical line before validation.
type Line struct {
	Code     string
	Quantity decimal.Decimal
}

// Options carries the optional parameters of a sale.
type Options struct {
	// Discount is a percentage in [0,100].
	Discount      decimal.Decimal
	PaymentMethod string
	PaymentDetail string
}

// Stats is the on-demand aggregate over the catalog and the sale history.
type Stats struct {
	ProductCount   int             `json:"total_productos"`
	SaleCount      int             `json:"total_ventas"`
	TotalRevenue   decimal.Decimal `json:"ingresos_totales"`
	InventoryValue decimal.Decimal `json:"valor_inventario"`
}

// Engine validates and commits multi-line sales atomically. It never mutates
// stock directly: every decrement goes through Inventory.AdjustStock.
//
// The engine mutex spans validation and commit. Without it two concurrent
// sales could both pass validation against the same stock before either
// commits.
type Engine struct {
	mu  sync.Mutex
	inv domain.Inventory
	log domain.SaleLog
	now func() time.Time
}

func NewEngine(inv domain.Inventory, log domain.SaleLog) *Engine {
	return &Engine{inv: inv, log: log, now: time.Now}
}

type aggregated struct {
	product  domain.Product
	quantity decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Commit processes a sale all-or-nothing:
//
//  1. aggregate duplicate codes, rejecting any non-positive quantity;
//  2. validate every aggregated line against current stock with no mutation;
//  3. decrement stock per line and snapshot the line items;
//  4. assign the next history id, apply the discount, persist.
//
// If any line fails validation the call returns with zero effect: no stock
// is touched and nothing is appended to the history.
func (e *Engine) Commit(ctx context.Context, lines []Line, opts Options) (domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sale{}, err
	}
	if opts.Discount.IsNegative() || opts.Discount.GreaterThan(hundred) {
		return domain.Sale{}, domain.NewInvalidDiscountError(opts.Discount)
	}
	if len(lines) == 0 {
		return domain.Sale{}, domain.NewInvalidQuantityError("", decimal.Zero, "sale has no lines")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. Aggregate, preserving first-seen order.
	order := make([]string, 0, len(lines))
	totals := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return domain.Sale{}, domain.NewInvalidQuantityError(l.Code, l.Quantity, "must be positive")
		}
		if _, seen := totals[l.Code]; !seen {
			order = append(order, l.Code)
		}
		totals[l.Code] = totals[l.Code].Add(l.Quantity)
	}

	// 2. Validate every line before mutating anything.
	agg := make([]aggregated, 0, len(order))
	for _, code := range order {
		p, err := e.inv.Get(ctx, code)
		if err != nil {
			return domain.Sale{}, err
		}
		qty := totals[code]
		if p.Unit.Continuous() {
			qty = qty.Round(1)
			if !qty.IsPositive() {
				return domain.Sale{}, domain.NewInvalidQuantityError(code, totals[code], "rounds to zero")
			}
		} else if !qty.IsInteger() {
			return domain.Sale{}, domain.NewInvalidQuantityError(code, qty,
				"must be a whole number for discrete units")
		}
		if p.Stock.LessThan(qty) {
			return domain.Sale{}, domain.NewInsufficientStockError(p, qty)
		}
		agg = append(agg, aggregated{product: p, quantity: qty})
	}

	// 3. Commit: decrement stock and snapshot line items.
	sale := domain.Sale{}
	for i, a := range agg {
		updated, err := e.inv.AdjustStock(ctx, a.product.Code, a.quantity, domain.Decrease)
		if err != nil {
			// A persistence failure keeps the in-memory decrement and still
			// returns the updated product; a validation failure returns a
			// zero product before mutating. The failed line is rolled back
			// only in the former case.
			applied := agg[:i]
			if updated.Code != "" {
				applied = agg[:i+1]
			}
			e.rollback(ctx, applied)
			return domain.Sale{}, err
		}
		sale.AddItem(a.product, a.quantity)
	}

	// 4. Finalize.
	id, err := e.log.NextID(ctx)
	if err != nil {
		e.rollback(ctx, agg)
		return domain.Sale{}, err
	}
	sale.ID = id
	sale.Date = domain.SaleTime{Time: e.now()}
	sale.PaymentMethod = opts.PaymentMethod
	sale.PaymentDetail = opts.PaymentDetail
	sale.ApplyDiscount(opts.Discount)

	if err := e.log.Append(ctx, sale); err != nil {
		// Stock is already decremented; per the write-through contract the
		// in-memory state remains the source of truth and the failure is
		// reported to the caller.
		return sale, err
	}
	slog.Info("sale committed", "id", sale.ID, "items", len(sale.Items), "total", sale.Total.String())
	return sale, nil
}

// rollback restores decrements applied before a commit-phase failure. Under
// the single-writer model the commit phase cannot fail after validation, but
// an interleaved writer or an unreadable history file can still surface here.
func (e *Engine) rollback(ctx context.Context, applied []aggregated) {
	for _, a := range applied {
		if _, err := e.inv.AdjustStock(ctx, a.product.Code, a.quantity, domain.Increase); err != nil {
			slog.Error("rollback failed", "codigo", a.product.Code, "error", err)
		}
	}
}

// Statistics recomputes the business summary from the catalog and the
// persisted history. Purely derived, no side effects.
func (e *Engine) Statistics(ctx context.Context) (Stats, error) {
	products, err := e.inv.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	sales, err := e.log.All(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{ProductCount: len(products), SaleCount: len(sales)}
	for _, s := range sales {
		st.TotalRevenue = st.TotalRevenue.Add(s.Total)
	}
	for _, p := range products {
		st.InventoryValue = st.InventoryValue.Add(p.Price.Mul(p.Stock))
	}
	return st, nil
}
