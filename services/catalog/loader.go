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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV parses a product catalog CSV into Products.
//
// Description:
//
//	The first record is the header; column order is free. Header names are
//	whitespace-trimmed. Numeric fields that fail to parse coerce to zero
//	rather than failing the load — catalog exports routinely carry blank
//	cells and "N/A" markers. Unknown columns are ignored.
//
// Inputs:
//
//	path - CSV file path.
//
// Outputs:
//
//	[]Product - Parsed rows, in file order.
//	error - Non-nil on I/O errors, malformed CSV, or a missing header.
func LoadCSV(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open csv %q: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses catalog CSV data from a reader. See LoadCSV.
func ReadCSV(r io.Reader) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows tolerated; missing cells coerce to zero values

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}

	var products []Product
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read csv row: %w", err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		products = append(products, Product{
			ProductID:        cell("product_id"),
			ProductName:      cell("product_name"),
			Category:         cell("category"),
			Brand:            cell("brand"),
			Seller:           cell("seller"),
			SellerCity:       cell("seller_city"),
			Price:            toFloat(cell("price")),
			DiscountPercent:  toFloat(cell("discount_percent")),
			FinalPrice:       toFloat(cell("final_price")),
			Rating:           toFloat(cell("rating")),
			ReviewCount:      toInt(cell("review_count")),
			StockAvailable:   toInt(cell("stock_available")),
			UnitsSold:        toInt(cell("units_sold")),
			ListingDate:      cell("listing_date"),
			DeliveryDays:     toInt(cell("delivery_days")),
			WeightG:          toFloat(cell("weight_g")),
			WarrantyMonths:   toInt(cell("warranty_months")),
			Color:            cell("color"),
			Size:             cell("size"),
			ReturnPolicyDays: toInt(cell("return_policy_days")),
			IsReturnable:     toBool(cell("is_returnable")),
			PaymentModes:     cell("payment_modes"),
			ShippingWeightG:  toFloat(cell("shipping_weight_g")),
			ProductScore:     toFloat(cell("product_score")),
			SellerRating:     toFloat(cell("seller_rating")),
		})
	}
	return products, nil
}

func toFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func toInt(s string) int64 {
	// Integer columns sometimes arrive as "12.0" from spreadsheet exports.
	return int64(toFloat(s))
}

func toBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
