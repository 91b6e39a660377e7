// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog owns the tabular product data: the SQLite schema, the CSV
// loader, and the parameterized aggregate/ranking queries the structured
// answer path runs.
package catalog

import (
	"fmt"
	"strings"
)

// Product is one catalog row.
type Product struct {
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	Category         string  `json:"category"`
	Brand            string  `json:"brand"`
	Seller           string  `json:"seller"`
	SellerCity       string  `json:"seller_city"`
	Price            float64 `json:"price"`
	DiscountPercent  float64 `json:"discount_percent"`
	FinalPrice       float64 `json:"final_price"`
	Rating           float64 `json:"rating"`
	ReviewCount      int64   `json:"review_count"`
	StockAvailable   int64   `json:"stock_available"`
	UnitsSold        int64   `json:"units_sold"`
	ListingDate      string  `json:"listing_date"`
	DeliveryDays     int64   `json:"delivery_days"`
	WeightG          float64 `json:"weight_g"`
	WarrantyMonths   int64   `json:"warranty_months"`
	Color            string  `json:"color"`
	Size             string  `json:"size"`
	ReturnPolicyDays int64   `json:"return_policy_days"`
	IsReturnable     bool    `json:"is_returnable"`
	PaymentModes     string  `json:"payment_modes"`
	ShippingWeightG  float64 `json:"shipping_weight_g"`
	ProductScore     float64 `json:"product_score"`
	SellerRating     float64 `json:"seller_rating"`
}

// DocumentText renders the row as one natural-language paragraph for
// embedding. Sentence form embeds measurably better than raw column dumps,
// so every field is phrased, not listed.
func (p Product) DocumentText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s (ID: %s). ", orNA(p.ProductName), orNA(p.ProductID))
	fmt.Fprintf(&b, "Category: %s, Brand: %s. ", orNA(p.Category), orNA(p.Brand))
	fmt.Fprintf(&b, "Seller: %s located in %s. ", orNA(p.Seller), orNA(p.SellerCity))
	fmt.Fprintf(&b, "Original price: ₹%.2f, Discount: %g%%, Final price: ₹%.2f. ",
		p.Price, p.DiscountPercent, p.FinalPrice)
	fmt.Fprintf(&b, "Rating: %g out of 5 based on %d reviews. ", p.Rating, p.ReviewCount)
	fmt.Fprintf(&b, "Stock available: %d units, Units sold: %d. ", p.StockAvailable, p.UnitsSold)
	fmt.Fprintf(&b, "Delivery in %d days. ", p.DeliveryDays)
	fmt.Fprintf(&b, "Returnable: %s, Return window: %d days. ", yesNo(p.IsReturnable), p.ReturnPolicyDays)
	fmt.Fprintf(&b, "Warranty: %d months. ", p.WarrantyMonths)
	fmt.Fprintf(&b, "Color: %s, Size: %s. ", orNA(p.Color), orNA(p.Size))
	fmt.Fprintf(&b, "Weight: %gg. ", p.WeightG)
	fmt.Fprintf(&b, "Payment modes accepted: %s. ", orNA(p.PaymentModes))
	fmt.Fprintf(&b, "Seller rating: %g. ", p.SellerRating)
	fmt.Fprintf(&b, "Listed on: %s.", orNA(p.ListingDate))
	return b.String()
}

// Metadata returns the row as a flat map for vector-store filtering.
func (p Product) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"product_id":     p.ProductID,
		"product_name":   p.ProductName,
		"category":       p.Category,
		"brand":          p.Brand,
		"seller":         p.Seller,
		"seller_city":    p.SellerCity,
		"final_price":    p.FinalPrice,
		"rating":         p.Rating,
		"units_sold":     p.UnitsSold,
		"is_returnable":  p.IsReturnable,
		"payment_modes":  p.PaymentModes,
		"listing_date":   p.ListingDate,
		"warranty_months": p.WarrantyMonths,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
