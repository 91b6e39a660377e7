// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"errors"
	"testing"
)

func testProducts() []Product {
	return []Product{
		{
			ProductID: "P1", ProductName: "Adidas Ultra 664", Brand: "Adidas", Category: "Sports",
			Price: 5000, FinalPrice: 4500, DiscountPercent: 10, Rating: 4.5,
			StockAvailable: 20, UnitsSold: 100, IsReturnable: true,
		},
		{
			ProductID: "P2", ProductName: "Nike Air 720", Brand: "Nike", Category: "Sports",
			Price: 8000, FinalPrice: 7200, DiscountPercent: 10, Rating: 4.0,
			StockAvailable: 5, UnitsSold: 300,
		},
		{
			ProductID: "P3", ProductName: "Boat Prime 291", Brand: "Boat", Category: "Electronics",
			Price: 2000, FinalPrice: 1500, DiscountPercent: 25, Rating: 3.5,
			StockAvailable: 50, UnitsSold: 800, IsReturnable: true,
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.InsertProducts(ctx, testProducts()); err != nil {
		t.Fatalf("InsertProducts failed: %v", err)
	}
	return store
}

func TestStoreCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"unfiltered", Filter{}, 3},
		{"by brand", Filter{Brand: "Adidas"}, 1},
		{"by category", Filter{Category: "Sports"}, 2},
		{"brand and category", Filter{Brand: "Nike", Category: "Sports"}, 1},
		{"no match", Filter{Brand: "Sony"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStoreAverage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	avg, err := store.Average(ctx, "rating", Filter{})
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	if avg != 4.0 { // (4.5 + 4.0 + 3.5) / 3
		t.Errorf("Average rating = %v, want 4.0", avg)
	}

	avg, err = store.Average(ctx, "final_price", Filter{Category: "Sports"})
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	if avg != 5850 { // (4500 + 7200) / 2
		t.Errorf("Average sports price = %v, want 5850", avg)
	}
}

func TestStoreAverageUnknownColumn(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Average(context.Background(), "payment_modes; DROP TABLE products", Filter{})
	var unknownErr ErrUnknownColumn
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Average error = %v, want ErrUnknownColumn", err)
	}
}

func TestStoreTotalAndRevenue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	total, err := store.Total(ctx, "stock_available", Filter{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 75 {
		t.Errorf("Total stock = %v, want 75", total)
	}

	revenue, err := store.Revenue(ctx, Filter{Brand: "Boat"})
	if err != nil {
		t.Fatalf("Revenue failed: %v", err)
	}
	if revenue != 1500*800 {
		t.Errorf("Revenue = %v, want %v", revenue, 1500*800)
	}
}

func TestStoreAggregatesOnEmptyFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// SUM/AVG over zero rows is NULL in SQLite; the store maps it to 0.
	avg, err := store.Average(ctx, "rating", Filter{Brand: "Sony"})
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	if avg != 0 {
		t.Errorf("Average = %v, want 0", avg)
	}
	revenue, err := store.Revenue(ctx, Filter{Brand: "Sony"})
	if err != nil {
		t.Fatalf("Revenue failed: %v", err)
	}
	if revenue != 0 {
		t.Errorf("Revenue = %v, want 0", revenue)
	}
}

func TestStorePriceUnder(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.PriceUnder(context.Background(), Filter{}, 5000, 10)
	if err != nil {
		t.Fatalf("PriceUnder failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	// Cheapest first.
	if rows[0].ProductName != "Boat Prime 291" || rows[1].ProductName != "Adidas Ultra 664" {
		t.Errorf("order = [%s, %s], want cheapest first", rows[0].ProductName, rows[1].ProductName)
	}
}

func TestStorePriceOverWithFilter(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.PriceOver(context.Background(), Filter{Category: "Sports"}, 5000, 10)
	if err != nil {
		t.Fatalf("PriceOver failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductName != "Nike Air 720" {
		t.Errorf("rows = %+v, want only Nike Air 720", rows)
	}
}

func TestStoreTopBy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows, err := store.TopBy(ctx, "units_sold", false, Filter{}, 2)
	if err != nil {
		t.Fatalf("TopBy failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].ProductName != "Boat Prime 291" {
		t.Errorf("top seller = %s, want Boat Prime 291", rows[0].ProductName)
	}

	rows, err = store.TopBy(ctx, "final_price", true, Filter{}, 1)
	if err != nil {
		t.Fatalf("TopBy failed: %v", err)
	}
	if rows[0].ProductName != "Boat Prime 291" {
		t.Errorf("cheapest = %s, want Boat Prime 291", rows[0].ProductName)
	}

	if _, err := store.TopBy(ctx, "seller", false, Filter{}, 1); err == nil {
		t.Error("TopBy accepted a non-rankable column")
	}
}

func TestStoreList(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.List(context.Background(), Filter{}, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2 (limit applied)", len(rows))
	}
}

func TestStoreListAllProductsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	products, err := store.ListAllProducts(context.Background())
	if err != nil {
		t.Fatalf("ListAllProducts failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("products = %d, want 3", len(products))
	}
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}
	if !byID["P1"].IsReturnable {
		t.Error("P1.IsReturnable = false, want true")
	}
	if byID["P2"].IsReturnable {
		t.Error("P2.IsReturnable = true, want false")
	}
	if byID["P3"].FinalPrice != 1500 {
		t.Errorf("P3.FinalPrice = %v, want 1500", byID["P3"].FinalPrice)
	}
}
