// Package store provides the JSON file-backed collections of the
// supermarket system. Every mutating operation rewrites the owning file in
// full (write-through); files are written to a temp path and renamed over
// the original.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"

	"supermercado/domain"
)

// Inventory is the JSON file-backed implementation of domain.Inventory. It
// owns the authoritative code → product map.
type Inventory struct {
	mu          sync.RWMutex
	fs          afero.Fs
	path        string
	strictNames bool
	products    map[string]domain.Product
	onLowStock  func(domain.Product)
}

// compile-time assertion
var _ domain.Inventory = (*Inventory)(nil)

// NewInventory loads the catalog at path, seeding the demo catalog when the
// file is missing or unreadable. strictNames enables the case-insensitive
// name-uniqueness policy on Add.
func NewInventory(fs afero.Fs, path string, strictNames bool) (*Inventory, error) {
	s := &Inventory{
		fs:          fs,
		path:        path,
		strictNames: strictNames,
		products:    make(map[string]domain.Product),
	}
	s.load()
	return s, nil
}

// OnLowStock registers the low-stock alert hook, invoked after any stock
// mutation that leaves the product at or below its minimum.
func (s *Inventory) OnLowStock(f func(domain.Product)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLowStock = f
}

// load reads the backing file. A missing or malformed file regenerates the
// seed catalog rather than leaving the store empty or failing startup.
func (s *Inventory) load() {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read product file, seeding demo catalog",
				"path", s.path, "error", err)
		} else {
			slog.Info("no product file found, seeding demo catalog", "path", s.path)
		}
		s.seed()
		return
	}
	var list []domain.Product
	if err := json.Unmarshal(b, &list); err != nil {
		slog.Warn("malformed product file, seeding demo catalog",
			"path", s.path, "error", err)
		s.seed()
		return
	}
	for _, p := range list {
		s.products[p.Code] = p
	}
	slog.Info("products loaded", "count", len(s.products))
}

func (s *Inventory) seed() {
	s.products = make(map[string]domain.Product)
	for _, p := range SeedProducts() {
		s.products[p.Code] = p
	}
	if err := s.save(); err != nil {
		slog.Error("could not persist seed catalog", "path", s.path, "error", err)
	}
}

// save rewrites the whole file. Callers hold the write lock.
func (s *Inventory) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	list := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	// stable order for deterministic files
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.path)
}

func (s *Inventory) Add(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateProduct(product); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.Code]; ok {
		return domain.NewDuplicateCodeError(product.Code)
	}
	if s.strictNames {
		want := strings.ToLower(strings.TrimSpace(product.Name))
		for _, p := range s.products {
			if strings.ToLower(strings.TrimSpace(p.Name)) == want {
				return domain.NewDuplicateNameError(product.Name)
			}
		}
	}
	s.products[product.Code] = product
	return s.save()
}

func (s *Inventory) Get(ctx context.Context, code string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[code]
	if !ok {
		return domain.Product{}, domain.NewProductNotFoundError(code)
	}
	return p, nil
}

// AdjustStock applies a positive delta to a product's stock. Decrease fails
// closed when the amount exceeds the current stock, so stock never goes
// negative. The in-memory mutation survives a persistence failure; the error
// is still reported to the caller.
func (s *Inventory) AdjustStock(ctx context.Context, code string, amount decimal.Decimal, dir domain.StockDirection) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if !amount.IsPositive() {
		return domain.Product{}, domain.NewInvalidQuantityError(code, amount, "must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[code]
	if !ok {
		return domain.Product{}, domain.NewProductNotFoundError(code)
	}
	if p.Unit.Continuous() {
		amount = amount.Round(1)
	} else if !amount.IsInteger() {
		return domain.Product{}, domain.NewInvalidQuantityError(code, amount,
			"must be a whole number for discrete units")
	}

	switch dir {
	case domain.Increase:
		p.Stock = p.Stock.Add(amount)
	case domain.Decrease:
		if amount.GreaterThan(p.Stock) {
			return domain.Product{}, domain.NewInsufficientStockError(p, amount)
		}
		p.Stock = p.Stock.Sub(amount)
	}
	s.products[code] = p

	err := s.save()
	if p.LowStock() && s.onLowStock != nil {
		s.onLowStock(p)
	}
	return p, err
}

// Find matches term case-insensitively as a substring of the code, the name
// OR the category name. Results are unsorted; ordering is a presentation
// concern.
func (s *Inventory) Find(ctx context.Context, term string) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Code), term) ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Category.Name), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Available returns every product with stock > 0.
func (s *Inventory) Available(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.Stock.IsPositive() {
			out = append(out, p)
		}
	}
	return out, nil
}

// LowStock returns every product at or below its minimum, or out of stock
// entirely.
func (s *Inventory) LowStock(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.LowStock() || p.Stock.IsZero() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Inventory) Remove(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[code]; !ok {
		return domain.NewProductNotFoundError(code)
	}
	delete(s.products, code)
	return s.save()
}

func (s *Inventory) List(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// NextCode computes one past the highest numeric code in use, ignoring
// non-numeric codes, "1" when there are none. No zero padding.
func (s *Inventory) NextCode(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for code := range s.products {
		if !isDigits(code) {
			continue
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
