package wb

import (
	"context"
	"fmt"

	"sellerscout/internal/domain"
)

const catalogBaseURL = "https://catalog.wb.ru/catalog/%s/v2/catalog?%s"

// CatalogFetcher pages through a shard/category catalog query.
type CatalogFetcher struct {
	category    string
	shard       string
	pages       int
	client      JSONFetcher
	concurrency int
}

// NewCatalogFetcher creates a catalog fetcher for pages 1..pages.
func NewCatalogFetcher(category, shard string, pages int, client JSONFetcher, concurrency int) *CatalogFetcher {
	if pages < 1 {
		pages = 1
	}
	return &CatalogFetcher{
		category:    category,
		shard:       shard,
		pages:       pages,
		client:      client,
		concurrency: concurrency,
	}
}

// BuildURLs returns the page URLs with the fixed catalog query attributes.
func (f *CatalogFetcher) BuildURLs() []string {
	urls := make([]string, 0, f.pages)
	for page := 1; page <= f.pages; page++ {
		urls = append(urls, fmt.Sprintf(
			catalogBaseURL+"&ab_testing=false&hide_dtype=13&appType=1&curr=rub&dest=-364001&lang=ru&page=%d&sort=popular&spp=30",
			f.shard, f.category, page,
		))
	}
	return urls
}

// Fetch retrieves all pages under the configured concurrency limit.
func (f *CatalogFetcher) Fetch(ctx context.Context) []map[string]any {
	return fetchAll(ctx, f.client, f.BuildURLs(), f.concurrency)
}

// CatalogParser flattens data.products across page payloads.
type CatalogParser struct{}

// Parse extracts products from the page payloads, skipping malformed
// entries.
func (CatalogParser) Parse(responses []map[string]any) []domain.CatalogProduct {
	var products []domain.CatalogProduct
	for _, resp := range responses {
		data, ok := resp["data"].(map[string]any)
		if !ok {
			continue
		}
		items, ok := data["products"].([]any)
		if !ok {
			continue
		}
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			var p domain.CatalogProduct
			if id, idOK := asInt64(item["id"]); idOK {
				p.ID = id
			}
			if name, nameOK := item["name"].(string); nameOK {
				p.Name = name
			}
			supplierID, supplierOK := asInt(item["supplierId"])
			if !supplierOK {
				continue
			}
			p.SupplierID = supplierID
			products = append(products, p)
		}
	}
	return products
}

// SellerIDs returns the distinct supplier IDs in discovery order.
func SellerIDs(products []domain.CatalogProduct) []int {
	seen := make(map[int]struct{}, len(products))
	var ids []int
	for _, p := range products {
		if _, dup := seen[p.SupplierID]; dup {
			continue
		}
		seen[p.SupplierID] = struct{}{}
		ids = append(ids, p.SupplierID)
	}
	return ids
}

// asInt converts a decoded JSON number to int.
func asInt(v any) (int, bool) {
	n, ok := asInt64(v)
	return int(n), ok
}

// asInt64 converts a decoded JSON number to int64.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
