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
	"database/sql"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	_ "modernc.org/sqlite"
)

var storeTracer = otel.Tracer("catalogqa.catalog.store")

// Column whitelists. Query builders interpolate column names (placeholders
// cannot bind identifiers), so every name must come from these sets.
var (
	avgColumns = map[string]string{
		"rating":           "rating",
		"final_price":      "final_price",
		"price":            "price",
		"discount_percent": "discount_percent",
		"delivery_days":    "delivery_days",
		"product_score":    "product_score",
		"seller_rating":    "seller_rating",
	}

	sumColumns = map[string]string{
		"stock_available": "stock_available",
		"units_sold":      "units_sold",
		"review_count":    "review_count",
	}

	rankColumns = map[string]string{
		"final_price":      "final_price",
		"rating":           "rating",
		"units_sold":       "units_sold",
		"discount_percent": "discount_percent",
	}
)

// ErrUnknownColumn reports a column outside the whitelist.
type ErrUnknownColumn struct {
	Column string
}

func (e ErrUnknownColumn) Error() string {
	return fmt.Sprintf("catalog: unknown column %q", e.Column)
}

// Filter narrows a query to one brand and/or category. Zero value means no
// filtering. Values are bound as parameters, never interpolated.
type Filter struct {
	Brand    string
	Category string
}

// whereClause renders the filter as SQL plus its bound arguments.
func (f Filter) whereClause() (string, []interface{}) {
	var parts []string
	var args []interface{}
	if f.Brand != "" {
		parts = append(parts, "brand = ?")
		args = append(args, f.Brand)
	}
	if f.Category != "" {
		parts = append(parts, "category = ?")
		args = append(args, f.Category)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// ProductSummary is the row shape returned by ranking and listing queries:
// enough columns for any answer rendering without a second round trip.
type ProductSummary struct {
	ProductName     string  `json:"product_name"`
	Brand           string  `json:"brand"`
	FinalPrice      float64 `json:"final_price"`
	Rating          float64 `json:"rating"`
	UnitsSold       int64   `json:"units_sold"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Store runs parameterized queries against the products table.
//
// Description:
//
//	Backed by the pure-Go SQLite driver, so the binary stays CGO-free.
//	All aggregate results are rounded to two decimals in SQL.
//
// Thread Safety: Safe for concurrent use. database/sql pools connections.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database.
//
// Inputs:
//
//	path - SQLite file path, or ":memory:" for an ephemeral DB.
//
// Outputs:
//
//	*Store - The opened store. Never nil on success.
//	error - Non-nil if the database cannot be opened or pinged.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: ping %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the products table and its filter indexes. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	ctx, span := storeTracer.Start(ctx, "catalog.init")
	defer span.End()

	const schema = `
CREATE TABLE IF NOT EXISTS products (
	product_id         TEXT,
	product_name       TEXT,
	category           TEXT,
	brand              TEXT,
	seller             TEXT,
	seller_city        TEXT,
	price              REAL,
	discount_percent   REAL,
	final_price        REAL,
	rating             REAL,
	review_count       INTEGER,
	stock_available    INTEGER,
	units_sold         INTEGER,
	listing_date       TEXT,
	delivery_days      INTEGER,
	weight_g           REAL,
	warranty_months    INTEGER,
	color              TEXT,
	size               TEXT,
	return_policy_days INTEGER,
	is_returnable      INTEGER,
	payment_modes      TEXT,
	shipping_weight_g  REAL,
	product_score      REAL,
	seller_rating      REAL
);
CREATE INDEX IF NOT EXISTS idx_brand    ON products(brand);
CREATE INDEX IF NOT EXISTS idx_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_price    ON products(final_price);
CREATE INDEX IF NOT EXISTS idx_rating   ON products(rating);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("catalog: init schema: %w", err)
	}
	return nil
}

// InsertProducts bulk-inserts rows inside one transaction.
func (s *Store) InsertProducts(ctx context.Context, products []Product) error {
	ctx, span := storeTracer.Start(ctx, "catalog.insert_products")
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.rows", len(products)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		returnable := 0
		if p.IsReturnable {
			returnable = 1
		}
		_, err := stmt.ExecContext(ctx,
			p.ProductID, p.ProductName, p.Category, p.Brand, p.Seller, p.SellerCity,
			p.Price, p.DiscountPercent, p.FinalPrice, p.Rating,
			p.ReviewCount, p.StockAvailable, p.UnitsSold,
			p.ListingDate, p.DeliveryDays, p.WeightG, p.WarrantyMonths,
			p.Color, p.Size, p.ReturnPolicyDays, returnable,
			p.PaymentModes, p.ShippingWeightG, p.ProductScore, p.SellerRating,
		)
		if err != nil {
			return fmt.Errorf("catalog: insert %q: %w", p.ProductID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit insert: %w", err)
	}
	return nil
}

// Count returns the number of rows matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := f.whereClause()
	var total int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return total, nil
}

// Average returns ROUND(AVG(column), 2) over the filtered rows. Zero when
// no rows match.
func (s *Store) Average(ctx context.Context, column string, f Filter) (float64, error) {
	col, ok := avgColumns[column]
	if !ok {
		return 0, ErrUnknownColumn{Column: column}
	}
	where, args := f.whereClause()
	var avg sql.NullFloat64
	query := fmt.Sprintf("SELECT ROUND(AVG(%s), 2) FROM products%s", col, where)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("catalog: average %s: %w", col, err)
	}
	return avg.Float64, nil
}

// Total returns SUM(column) over the filtered rows. Zero when no rows match.
func (s *Store) Total(ctx context.Context, column string, f Filter) (float64, error) {
	col, ok := sumColumns[column]
	if !ok {
		return 0, ErrUnknownColumn{Column: column}
	}
	where, args := f.whereClause()
	var total sql.NullFloat64
	query := fmt.Sprintf("SELECT SUM(%s) FROM products%s", col, where)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("catalog: total %s: %w", col, err)
	}
	return total.Float64, nil
}

// Revenue returns ROUND(SUM(final_price * units_sold), 2) over the filtered
// rows.
func (s *Store) Revenue(ctx context.Context, f Filter) (float64, error) {
	where, args := f.whereClause()
	var revenue sql.NullFloat64
	query := "SELECT ROUND(SUM(final_price * units_sold), 2) FROM products" + where
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&revenue); err != nil {
		return 0, fmt.Errorf("catalog: revenue: %w", err)
	}
	return revenue.Float64, nil
}

// PriceUnder lists up to n products below the price limit, cheapest first.
func (s *Store) PriceUnder(ctx context.Context, f Filter, limit float64, n int) ([]ProductSummary, error) {
	where, args := f.whereClause()
	if where == "" {
		where = " WHERE final_price < ?"
	} else {
		where += " AND final_price < ?"
	}
	args = append(args, limit)
	query := summarySelect + where + " ORDER BY final_price ASC LIMIT ?"
	return s.querySummaries(ctx, query, append(args, n)...)
}

// PriceOver lists up to n products above the price limit, priciest first.
func (s *Store) PriceOver(ctx context.Context, f Filter, limit float64, n int) ([]ProductSummary, error) {
	where, args := f.whereClause()
	if where == "" {
		where = " WHERE final_price > ?"
	} else {
		where += " AND final_price > ?"
	}
	args = append(args, limit)
	query := summarySelect + where + " ORDER BY final_price DESC LIMIT ?"
	return s.querySummaries(ctx, query, append(args, n)...)
}

// TopBy lists the top n products ranked by a whitelisted column.
func (s *Store) TopBy(ctx context.Context, column string, ascending bool, f Filter, n int) ([]ProductSummary, error) {
	col, ok := rankColumns[column]
	if !ok {
		return nil, ErrUnknownColumn{Column: column}
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	where, args := f.whereClause()
	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT ?", summarySelect, where, col, direction)
	return s.querySummaries(ctx, query, append(args, n)...)
}

// List returns up to n filtered rows in table order.
func (s *Store) List(ctx context.Context, f Filter, n int) ([]ProductSummary, error) {
	where, args := f.whereClause()
	return s.querySummaries(ctx, summarySelect+where+" LIMIT ?", append(args, n)...)
}

const summarySelect = `
SELECT product_name, brand, final_price, rating, units_sold, discount_percent
FROM products`

func (s *Store) querySummaries(ctx context.Context, query string, args ...interface{}) ([]ProductSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query: %w", err)
	}
	defer rows.Close()

	var out []ProductSummary
	for rows.Next() {
		var p ProductSummary
		if err := rows.Scan(&p.ProductName, &p.Brand, &p.FinalPrice, &p.Rating, &p.UnitsSold, &p.DiscountPercent); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: rows: %w", err)
	}
	return out, nil
}

// ListAllProducts streams every full row, for ingestion into the vector
// store.
func (s *Store) ListAllProducts(ctx context.Context) ([]Product, error) {
	ctx, span := storeTracer.Start(ctx, "catalog.list_all_products")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
SELECT product_id, product_name, category, brand, seller, seller_city,
       price, discount_percent, final_price, rating,
       review_count, stock_available, units_sold,
       listing_date, delivery_days, weight_g, warranty_months,
       color, size, return_policy_days, is_returnable,
       payment_modes, shipping_weight_g, product_score, seller_rating
FROM products`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list all: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var returnable int64
		err := rows.Scan(
			&p.ProductID, &p.ProductName, &p.Category, &p.Brand, &p.Seller, &p.SellerCity,
			&p.Price, &p.DiscountPercent, &p.FinalPrice, &p.Rating,
			&p.ReviewCount, &p.StockAvailable, &p.UnitsSold,
			&p.ListingDate, &p.DeliveryDays, &p.WeightG, &p.WarrantyMonths,
			&p.Color, &p.Size, &p.ReturnPolicyDays, &returnable,
			&p.PaymentModes, &p.ShippingWeightG, &p.ProductScore, &p.SellerRating,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		p.IsReturnable = returnable != 0
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: rows: %w", err)
	}
	return out, nil
}
