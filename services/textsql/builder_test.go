// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package textsql

import (
	"context"
	"strings"
	"testing"

	"github.com/AleutianAI/catalogqa/services/catalog"
)

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name         string
		question     string
		wantOp       Op
		wantBrand    string
		wantCategory string
		wantPrice    float64
	}{
		{"count with brand", "how many adidas products", OpCount, "Adidas", "", 0},
		{"avg rating", "average rating of nike shoes", OpAvgRating, "Nike", "", 0},
		{"avg price with category", "avg price in electronics", OpAvgPrice, "", "Electronics", 0},
		{"avg discount", "average discount on boat", OpAvgDiscount, "Boat", "", 0},
		{"total stock", "total stock of samsung", OpTotalStock, "Samsung", "", 0},
		{"units sold", "units sold for puma", OpTotalSold, "Puma", "", 0},
		{"revenue", "total revenue from mobiles", OpRevenue, "", "Mobiles", 0},
		{"price under", "nike shoes under 3000", OpPriceUnder, "Nike", "", 3000},
		{"price under with rupee and commas", "products under ₹30,000", OpPriceUnder, "", "", 30000},
		{"price over", "products above 5000", OpPriceOver, "", "", 5000},
		{"most expensive", "most expensive dell laptop", OpMostExpensive, "Dell", "", 0},
		{"cheapest", "cheapest products in sports", OpCheapest, "", "Sports", 0},
		{"best rated", "top rated apple products", OpBestRated, "Apple", "", 0},
		{"worst rated", "worst rated products", OpWorstRated, "", "", 0},
		{"best selling", "most sold lg appliances", OpBestSelling, "Lg", "Appliances", 0},
		{"highest discount", "best deal on hp", OpHighestDiscount, "Hp", "", 0},
		{"list all", "show all lenovo products", OpListAll, "Lenovo", "", 0},
		{"multi word category", "list all home & kitchen items", OpListAll, "", "Home & Kitchen", 0},
		{"fallback is count", "redmi stuff", OpCount, "Redmi", "", 0},
		{"count beats price filter", "how many products under 3000", OpCount, "", "", 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(tt.question)
			if plan.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", plan.Op, tt.wantOp)
			}
			if plan.Filter.Brand != tt.wantBrand {
				t.Errorf("Brand = %q, want %q", plan.Filter.Brand, tt.wantBrand)
			}
			if plan.Filter.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", plan.Filter.Category, tt.wantCategory)
			}
			if plan.Price != tt.wantPrice {
				t.Errorf("Price = %v, want %v", plan.Price, tt.wantPrice)
			}
		})
	}
}

func newTestAnswerer(t *testing.T) *Answerer {
	t.Helper()
	store, err := catalog.Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	err = store.InsertProducts(ctx, []catalog.Product{
		{ProductID: "P1", ProductName: "Adidas Ultra 664", Brand: "Adidas", Category: "Sports",
			FinalPrice: 4500, Rating: 4.5, StockAvailable: 20, UnitsSold: 100, DiscountPercent: 10},
		{ProductID: "P2", ProductName: "Nike Air 720", Brand: "Nike", Category: "Sports",
			FinalPrice: 7200, Rating: 4.0, StockAvailable: 5, UnitsSold: 300, DiscountPercent: 10},
		{ProductID: "P3", ProductName: "Boat Prime 291", Brand: "Boat", Category: "Electronics",
			FinalPrice: 1500, Rating: 3.5, StockAvailable: 50, UnitsSold: 800, DiscountPercent: 25},
	})
	if err != nil {
		t.Fatalf("InsertProducts failed: %v", err)
	}
	return NewAnswerer(store)
}

func TestAnswererAnswer(t *testing.T) {
	a := newTestAnswerer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"count all", "how many products", "There are **3** products matching your query."},
		{"count filtered", "how many adidas products", "There are **1** products matching your query."},
		{"avg rating", "average rating", "The average rating is **4 / 5**."},
		{"total stock", "total stock", "Total stock available: **75 units**."},
		{"revenue filtered", "total revenue from boat", "Total revenue generated: **₹1,200,000**."},
		{"unmatched falls back to count", "gibberish question", "There are **3** products matching your query."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Answer(ctx, tt.question)
			if err != nil {
				t.Fatalf("Answer failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Answer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswererListings(t *testing.T) {
	a := newTestAnswerer(t)
	ctx := context.Background()

	got, err := a.Answer(ctx, "cheapest products")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "1. **Boat Prime 291** — Boat — ₹1,500") {
		t.Errorf("first line = %q", lines[0])
	}

	got, err = a.Answer(ctx, "best selling products")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !strings.Contains(strings.Split(got, "\n")[0], "800 sold") {
		t.Errorf("best selling line = %q", got)
	}

	got, err = a.Answer(ctx, "nike products under 5000")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if got != "No products found matching your query." {
		t.Errorf("empty listing = %q", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := groupInt(1234567); got != "1,234,567" {
		t.Errorf("groupInt = %q", got)
	}
	if got := groupInt(999); got != "999" {
		t.Errorf("groupInt = %q", got)
	}
	if got := groupFloat(4500.50); got != "4,500.5" {
		t.Errorf("groupFloat = %q", got)
	}
	if got := trimFloat(4.0); got != "4" {
		t.Errorf("trimFloat = %q", got)
	}
}
