// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textsql turns a natural-language question into a query plan over
// the catalog store. Rule-based: phrase patterns select the operation,
// entity lists extract brand/category, a regexp extracts the price bound.
// No SQL text is ever assembled from user input; plans run through the
// store's parameterized queries.
package textsql

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/AleutianAI/catalogqa/services/catalog"
)

// Known entities. Substring matching, mirroring how shoppers actually type
// ("nike shoes under 3000" carries no word boundaries worth enforcing).
var (
	brands = []string{
		"adidas", "nike", "dell", "sony", "lg", "puma",
		"boat", "redmi", "samsung", "apple", "hp", "lenovo",
	}

	categories = []string{
		"electronics", "fashion", "appliances", "toys",
		"sports", "mobiles", "home & kitchen", "beauty",
	}
)

// pricePattern captures the first number, optionally rupee-prefixed and
// comma-grouped: "under ₹30,000" → 30000.
var pricePattern = regexp.MustCompile(`₹?\s*(\d[\d,]*)`)

// Op identifies the catalog query a plan runs.
type Op string

const (
	OpCount           Op = "count"
	OpAvgRating       Op = "avg_rating"
	OpAvgPrice        Op = "avg_price"
	OpAvgDiscount     Op = "avg_discount"
	OpTotalStock      Op = "total_stock"
	OpTotalSold       Op = "total_sold"
	OpRevenue         Op = "revenue"
	OpPriceUnder      Op = "price_under"
	OpPriceOver       Op = "price_over"
	OpMostExpensive   Op = "most_expensive"
	OpCheapest        Op = "cheapest"
	OpBestRated       Op = "best_rated"
	OpWorstRated      Op = "worst_rated"
	OpBestSelling     Op = "best_selling"
	OpHighestDiscount Op = "highest_discount"
	OpListAll         Op = "list_all"
)

// Plan is one executable catalog query.
type Plan struct {
	Op     Op
	Filter catalog.Filter
	Price  float64
}

// BuildPlan maps a question to a Plan.
//
// Description:
//
//	First matching rule wins; rule order resolves overlaps the same way a
//	human would read the question ("average price" before the bare price
//	filter). A question matching nothing falls back to a count, which at
//	least answers "how big is the selection".
func BuildPlan(question string) Plan {
	q := strings.ToLower(question)
	plan := Plan{
		Op: OpCount,
		Filter: catalog.Filter{
			Brand:    extractBrand(q),
			Category: extractCategory(q),
		},
	}
	price, hasPrice := extractPrice(q)
	plan.Price = price

	switch {
	case containsAny(q, "how many", "count", "number of", "total number"):
		plan.Op = OpCount
	case containsAny(q, "average rating", "avg rating"):
		plan.Op = OpAvgRating
	case containsAny(q, "average price", "avg price"):
		plan.Op = OpAvgPrice
	case containsAny(q, "average discount", "avg discount"):
		plan.Op = OpAvgDiscount
	case containsAny(q, "total stock", "total inventory"):
		plan.Op = OpTotalStock
	case containsAny(q, "total sales", "total units sold", "units sold"):
		plan.Op = OpTotalSold
	case containsAny(q, "total revenue", "total value"):
		plan.Op = OpRevenue
	case hasPrice && containsAny(q, "under", "below", "less than", "cheaper than"):
		plan.Op = OpPriceUnder
	case hasPrice && containsAny(q, "above", "over", "more than", "greater than"):
		plan.Op = OpPriceOver
	case containsAny(q, "most expensive", "highest price"):
		plan.Op = OpMostExpensive
	case containsAny(q, "cheapest", "lowest price"):
		plan.Op = OpCheapest
	case containsAny(q, "best rated", "highest rated", "top rated"):
		plan.Op = OpBestRated
	case containsAny(q, "worst rated", "lowest rated"):
		plan.Op = OpWorstRated
	case containsAny(q, "best selling", "most sold", "top selling", "popular"):
		plan.Op = OpBestSelling
	case containsAny(q, "highest discount", "most discount", "best deal"):
		plan.Op = OpHighestDiscount
	case containsAny(q, "list all", "show all", "all products"):
		plan.Op = OpListAll
	}
	return plan
}

func containsAny(q string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

func extractBrand(q string) string {
	for _, b := range brands {
		if strings.Contains(q, b) {
			return capitalize(b)
		}
	}
	return ""
}

func extractCategory(q string) string {
	for _, c := range categories {
		if strings.Contains(q, c) {
			return title(c)
		}
	}
	return ""
}

func extractPrice(q string) (float64, bool) {
	m := pricePattern.FindStringSubmatch(q)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// title uppercases the first letter of each word, matching how brand and
// category values are stored in the catalog.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// Answerer executes plans and renders answers.
//
// Thread Safety: Safe for concurrent use; the store pools connections.
type Answerer struct {
	store *catalog.Store
}

// NewAnswerer wraps a catalog store.
func NewAnswerer(store *catalog.Store) *Answerer {
	return &Answerer{store: store}
}

// Answer plans, executes, and formats the structured answer for a question.
//
// Outputs:
//
//	string - Markdown answer text.
//	error - Non-nil on store failure.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	plan := BuildPlan(question)
	return a.Execute(ctx, plan)
}

// Execute runs one plan against the store and formats the result.
func (a *Answerer) Execute(ctx context.Context, plan Plan) (string, error) {
	f := plan.Filter
	switch plan.Op {
	case OpCount:
		n, err := a.store.Count(ctx, f)
		if err != nil {
			return "", err
		}
		return formatCount(n), nil
	case OpAvgRating:
		v, err := a.store.Average(ctx, "rating", f)
		if err != nil {
			return "", err
		}
		return formatAvgRating(v), nil
	case OpAvgPrice:
		v, err := a.store.Average(ctx, "final_price", f)
		if err != nil {
			return "", err
		}
		return formatAvgPrice(v), nil
	case OpAvgDiscount:
		v, err := a.store.Average(ctx, "discount_percent", f)
		if err != nil {
			return "", err
		}
		return formatAvgDiscount(v), nil
	case OpTotalStock:
		v, err := a.store.Total(ctx, "stock_available", f)
		if err != nil {
			return "", err
		}
		return formatTotalStock(int64(v)), nil
	case OpTotalSold:
		v, err := a.store.Total(ctx, "units_sold", f)
		if err != nil {
			return "", err
		}
		return formatTotalSold(int64(v)), nil
	case OpRevenue:
		v, err := a.store.Revenue(ctx, f)
		if err != nil {
			return "", err
		}
		return formatRevenue(v), nil
	case OpPriceUnder:
		rows, err := a.store.PriceUnder(ctx, f, plan.Price, 10)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showPrice|showRating), nil
	case OpPriceOver:
		rows, err := a.store.PriceOver(ctx, f, plan.Price, 10)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showPrice|showRating), nil
	case OpMostExpensive:
		rows, err := a.store.TopBy(ctx, "final_price", false, f, 5)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showPrice), nil
	case OpCheapest:
		rows, err := a.store.TopBy(ctx, "final_price", true, f, 5)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showPrice), nil
	case OpBestRated:
		rows, err := a.store.TopBy(ctx, "rating", false, f, 5)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showRating), nil
	case OpWorstRated:
		rows, err := a.store.TopBy(ctx, "rating", true, f, 5)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showRating), nil
	case OpBestSelling:
		rows, err := a.store.TopBy(ctx, "units_sold", false, f, 5)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showSold), nil
	case OpHighestDiscount:
		rows, err := a.store.TopBy(ctx, "discount_percent", false, f, 5)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showDiscount|showPrice), nil
	case OpListAll:
		rows, err := a.store.List(ctx, f, 20)
		if err != nil {
			return "", err
		}
		return formatRows(rows, showPrice|showRating), nil
	default:
		n, err := a.store.Count(ctx, f)
		if err != nil {
			return "", err
		}
		return formatCount(n), nil
	}
}
