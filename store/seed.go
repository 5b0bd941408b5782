package store

import (
	"github.com/shopspring/decimal"

	"supermercado/domain"
)

// SeedProducts is the demonstration catalog written when no product file
// exists or the existing one cannot be decoded.
func SeedProducts() []domain.Product {
	kg := domain.Unit{Name: "kg"}
	units := domain.Unit{Name: "unidades"}
	return []domain.Product{
		{Code: "1", Name: "Arroz", Price: decimal.NewFromInt(1500), Stock: decimal.NewFromInt(50),
			Category: domain.Category{Name: "Abarrotes"}, Unit: kg, StockMinimum: decimal.NewFromInt(10)},
		{Code: "2", Name: "Leche", Price: decimal.NewFromInt(1200), Stock: decimal.NewFromInt(30),
			Category: domain.Category{Name: "Lácteos"}, Unit: units, StockMinimum: decimal.NewFromInt(5)},
		{Code: "3", Name: "Pan", Price: decimal.NewFromInt(800), Stock: decimal.NewFromInt(100),
			Category: domain.Category{Name: "Panadería"}, Unit: units, StockMinimum: decimal.NewFromInt(20)},
		{Code: "4", Name: "Manzanas", Price: decimal.NewFromInt(2500), Stock: decimal.NewFromFloat(20.5),
			Category: domain.Category{Name: "Frutas"}, Unit: kg, StockMinimum: decimal.NewFromInt(5)},
		{Code: "5", Name: "Pollo", Price: decimal.NewFromInt(5000), Stock: decimal.NewFromInt(15),
			Category: domain.Category{Name: "Carnes"}, Unit: kg, StockMinimum: decimal.NewFromInt(5)},
	}
}

// SeedAdmin is the default administrator credential created on first use.
func SeedAdmin() domain.User {
	return domain.User{Username: "admin", Password: "admin123", Role: domain.RoleAdmin}
}
