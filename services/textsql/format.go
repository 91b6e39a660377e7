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
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/catalogqa/services/catalog"
)

// rowField flags which summary columns a row listing shows. Listings stay
// scoped to what the question asked for, the same way a shop assistant would
// not quote discounts when asked about ratings.
type rowField uint8

const (
	showPrice rowField = 1 << iota
	showRating
	showSold
	showDiscount
)

func formatCount(n int64) string {
	return fmt.Sprintf("There are **%d** products matching your query.", n)
}

func formatAvgRating(v float64) string {
	return fmt.Sprintf("The average rating is **%s / 5**.", trimFloat(v))
}

func formatAvgPrice(v float64) string {
	return fmt.Sprintf("The average price is **₹%s**.", groupFloat(v))
}

func formatAvgDiscount(v float64) string {
	return fmt.Sprintf("The average discount is **%s%%**.", trimFloat(v))
}

func formatTotalStock(n int64) string {
	return fmt.Sprintf("Total stock available: **%s units**.", groupInt(n))
}

func formatTotalSold(n int64) string {
	return fmt.Sprintf("Total units sold: **%s**.", groupInt(n))
}

func formatRevenue(v float64) string {
	return fmt.Sprintf("Total revenue generated: **₹%s**.", groupFloat(v))
}

// formatRows renders a numbered product listing.
func formatRows(rows []catalog.ProductSummary, fields rowField) string {
	if len(rows) == 0 {
		return "No products found matching your query."
	}
	var lines []string
	for i, r := range rows {
		parts := []string{fmt.Sprintf("**%s**", r.ProductName), r.Brand}
		if fields&showPrice != 0 {
			parts = append(parts, "₹"+groupFloat(r.FinalPrice))
		}
		if fields&showRating != 0 {
			parts = append(parts, "⭐ "+trimFloat(r.Rating))
		}
		if fields&showSold != 0 {
			parts = append(parts, groupInt(r.UnitsSold)+" sold")
		}
		if fields&showDiscount != 0 {
			parts = append(parts, trimFloat(r.DiscountPercent)+"% off")
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, " — ")))
	}
	return strings.Join(lines, "\n")
}

// trimFloat drops trailing zeros: 4.50 → "4.5", 10.00 → "10".
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupInt renders 1234567 as "1,234,567".
func groupInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// groupFloat comma-groups the integer part, keeping at most two decimals.
func groupFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	if hasFrac {
		return groupInt(n) + "." + frac
	}
	return groupInt(n)
}
