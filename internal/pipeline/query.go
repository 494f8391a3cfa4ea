package pipeline

import (
	"fmt"
	"strings"
	"time"

	"sellerscout/internal/domain"
)

// Query describes one seller-collection request against a single catalog
// subcategory.
type Query struct {
	Category     string
	Shard        string
	Pages        int
	Regions      []string
	MinSales     int
	MaxSales     int // 0 means unbounded
	MinRegDate   time.Time
	MaxRegDate   time.Time
	Limit        int // 0 means unlimited
	CategoryName string
}

// Signature returns the request-cache key for the query, excluding the
// limit. The limit is compared separately so the same query with a
// different cap never serves a stale truncation.
func (q Query) Signature() string {
	parts := []string{
		q.Category,
		q.Shard,
		strings.Join(q.Regions, ","),
		fmt.Sprint(q.MinSales),
		formatMax(q.MaxSales),
		fmt.Sprint(q.Pages),
		formatDate(q.MinRegDate),
		formatDate(q.MaxRegDate),
	}
	return strings.Join(parts, "|")
}

// Params returns the query as a collection-log parameter map. Empty values
// are dropped during normalization.
func (q Query) Params() domain.Params {
	p := domain.Params{
		"cat":           q.Category,
		"shard":         q.Shard,
		"region_id":     strings.Join(q.Regions, ","),
		"saleItemCount": q.MinSales,
		"pages":         q.Pages,
	}
	if q.MaxSales > 0 {
		p["maxSaleCount"] = q.MaxSales
	}
	if !q.MinRegDate.IsZero() {
		p["regDate"] = formatDate(q.MinRegDate)
	}
	if !q.MaxRegDate.IsZero() {
		p["maxRegDate"] = formatDate(q.MaxRegDate)
	}
	if q.Limit > 0 {
		p["limit"] = q.Limit
	}
	return p
}

func formatMax(v int) string {
	if v <= 0 {
		return ""
	}
	return fmt.Sprint(v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
