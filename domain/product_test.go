package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name        string
		product     Product
		expectError bool
		errField    string
	}{
		{
			name: "valid product",
			product: Product{
				Code:         "1",
				Name:         "Arroz",
				Price:        decimal.NewFromInt(1500),
				Stock:        decimal.NewFromInt(50),
				Unit:         Unit{Name: "unidades"},
				StockMinimum: decimal.NewFromInt(10),
			},
			expectError: false,
		},
		{
			name: "valid continuous product with fraction",
			product: Product{
				Code:         "4",
				Name:         "Manzanas",
				Price:        decimal.NewFromInt(2500),
				Stock:        decimal.NewFromFloat(20.5),
				Unit:         Unit{Name: "kg"},
				StockMinimum: decimal.NewFromInt(5),
			},
			expectError: false,
		},
		{
			name: "empty code",
			product: Product{
				Name:  "Leche",
				Price: decimal.NewFromInt(1200),
			},
			expectError: true,
			errField:    "codigo",
		},
		{
			name: "empty name",
			product: Product{
				Code:  "2",
				Price: decimal.NewFromInt(10),
			},
			expectError: true,
			errField:    "nombre",
		},
		{
			name: "negative price",
			product: Product{
				Code:  "3",
				Name:  "Pan",
				Price: decimal.NewFromInt(-1),
			},
			expectError: true,
			errField:    "precio",
		},
		{
			name: "negative stock",
			product: Product{
				Code:  "3",
				Name:  "Pan",
				Price: decimal.NewFromInt(800),
				Stock: decimal.NewFromInt(-5),
			},
			expectError: true,
			errField:    "stock",
		},
		{
			name: "fractional stock on discrete unit",
			product: Product{
				Code:  "2",
				Name:  "Leche",
				Price: decimal.NewFromInt(1200),
				Stock: decimal.NewFromFloat(3.5),
				Unit:  Unit{Name: "unidades"},
			},
			expectError: true,
			errField:    "stock",
		},
		{
			name: "fractional minimum on discrete unit",
			product: Product{
				Code:         "2",
				Name:         "Leche",
				Price:        decimal.NewFromInt(1200),
				Stock:        decimal.NewFromInt(3),
				Unit:         Unit{Name: "unidades"},
				StockMinimum: decimal.NewFromFloat(2.5),
			},
			expectError: true,
			errField:    "stock_minimo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.product)

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				ipe, ok := err.(*InvalidProductError)
				if !ok {
					t.Fatalf("expected InvalidProductError, got %T", err)
				}
				if ipe.Field != tt.errField {
					t.Fatalf("expected error field %q, got %q", tt.errField, ipe.Field)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestLowStockBoundary(t *testing.T) {
	min := decimal.NewFromInt(5)
	p := Product{Code: "1", Name: "Leche", Unit: Unit{Name: "unidades"}, StockMinimum: min}

	p.Stock = min
	if !p.LowStock() {
		t.Fatalf("stock == minimum must report low stock")
	}
	p.Stock = min.Add(decimal.NewFromInt(1))
	if p.LowStock() {
		t.Fatalf("stock == minimum+1 must not report low stock")
	}
	p.Stock = decimal.Zero
	if !p.LowStock() {
		t.Fatalf("zero stock must report low stock")
	}
}

func TestUnitContinuous(t *testing.T) {
	tests := []struct {
		unit       Unit
		continuous bool
	}{
		{Unit{Name: "kg"}, true},
		{Unit{Name: "Kilos"}, true},
		{Unit{Name: "kilogramos"}, true},
		{Unit{Name: "Gramo", Abbreviation: "kg"}, true},
		{Unit{Name: "unidades"}, false},
		{Unit{Name: "mL"}, false},
		{Unit{}, false},
	}
	for _, tt := range tests {
		if got := tt.unit.Continuous(); got != tt.continuous {
			t.Fatalf("Continuous(%q/%q) = %v, want %v",
				tt.unit.Name, tt.unit.Abbreviation, got, tt.continuous)
		}
	}
}

func TestProductDecodeLegacyForms(t *testing.T) {
	// category and unit as bare strings, no stock_minimo
	raw := `{"codigo":"7","nombre":"Azúcar","precio":900,"stock":12,"categoria":"Abarrotes","unidad":"unidades"}`
	var p Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.Category.Name != "Abarrotes" {
		t.Fatalf("legacy category string not decoded: %+v", p.Category)
	}
	if p.Unit.Name != "unidades" {
		t.Fatalf("legacy unit string not decoded: %+v", p.Unit)
	}
	if !p.StockMinimum.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("missing stock_minimo must default to 5, got %s", p.StockMinimum)
	}

	// structured forms
	raw = `{"codigo":"8","nombre":"Harina","precio":1100,"stock":4,
		"categoria":{"nombre":"Abarrotes","descripcion":"secos"},
		"unidad":{"nombre":"Kilogramo","abreviatura":"kg"},"stock_minimo":2}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.Category.Description != "secos" {
		t.Fatalf("structured category not decoded: %+v", p.Category)
	}
	if p.Unit.Abbreviation != "kg" {
		t.Fatalf("structured unit not decoded: %+v", p.Unit)
	}

	// missing unit defaults to discrete "unidades"
	raw = `{"codigo":"9","nombre":"Sal","precio":500,"stock":3,"categoria":"Abarrotes"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.Unit.Name != "unidades" {
		t.Fatalf("missing unit must default to unidades, got %q", p.Unit.Name)
	}
}

func TestProductDecodeCoercesFractionalStock(t *testing.T) {
	raw := `{"codigo":"2","nombre":"Leche","precio":1200,"stock":29.6,"categoria":"Lácteos","unidad":"unidades","stock_minimo":4.2}`
	var p Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !p.Stock.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("fractional stock on discrete unit must round to 30, got %s", p.Stock)
	}
	if !p.StockMinimum.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("fractional minimum on discrete unit must round to 4, got %s", p.StockMinimum)
	}

	// continuous units keep one decimal and drop the rest
	raw = `{"codigo":"4","nombre":"Manzanas","precio":2500,"stock":20.55,"categoria":"Frutas","unidad":"kg","stock_minimo":5}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !p.Stock.Equal(decimal.NewFromFloat(20.6)) {
		t.Fatalf("continuous stock must round to one decimal, got %s", p.Stock)
	}
}

func TestProductRoundTrip(t *testing.T) {
	p := Product{
		Code:         "4",
		Name:         "Manzanas",
		Price:        decimal.NewFromInt(2500),
		Stock:        decimal.NewFromFloat(20.5),
		Category:     Category{Name: "Frutas", Description: "de temporada"},
		Unit:         Unit{Name: "kg"},
		StockMinimum: decimal.NewFromInt(5),
		ImagePath:    "img/manzanas.png",
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var got Product
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Code != p.Code || got.Name != p.Name || got.ImagePath != p.ImagePath {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Price.Equal(p.Price) || !got.Stock.Equal(p.Stock) || !got.StockMinimum.Equal(p.StockMinimum) {
		t.Fatalf("round trip numeric mismatch: %+v", got)
	}
	if got.Category != p.Category || got.Unit != p.Unit {
		t.Fatalf("round trip descriptor mismatch: %+v", got)
	}
}
