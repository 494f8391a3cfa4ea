package wb

import (
	"context"
	"fmt"

	"sellerscout/internal/domain"
)

const supplierBaseURL = "https://static-basket-01.wbbasket.ru/vol0/data/supplier-by-id/%d.json"

// SupplierFetcher resolves registry credentials per seller ID from the
// static supplier lookup endpoint.
type SupplierFetcher struct {
	ids         []int
	client      JSONFetcher
	concurrency int
}

// NewSupplierFetcher creates a supplier lookup fetcher.
func NewSupplierFetcher(ids []int, client JSONFetcher, concurrency int) *SupplierFetcher {
	return &SupplierFetcher{ids: ids, client: client, concurrency: concurrency}
}

// Fetch retrieves one payload per seller ID, in request order.
func (f *SupplierFetcher) Fetch(ctx context.Context) []map[string]any {
	urls := make([]string, 0, len(f.ids))
	for _, id := range f.ids {
		urls = append(urls, fmt.Sprintf(supplierBaseURL, id))
	}
	return fetchAll(ctx, f.client, urls, f.concurrency)
}

// SupplierParser extracts INN, OGRN, OGRNIP and store name per seller.
type SupplierParser struct{}

// Parse maps supplier ID to credentials. Entries without a tax ID are
// dropped; the trademark falls back to brand, then supplier name.
func (SupplierParser) Parse(responses []map[string]any) map[int]domain.RegistryCredentials {
	out := make(map[int]domain.RegistryCredentials)
	for _, resp := range responses {
		inn, _ := resp["inn"].(string)
		if inn == "" {
			inn, _ = resp["taxpayerCode"].(string)
		}
		if inn == "" {
			continue
		}

		supplierID, ok := asInt(resp["supplierId"])
		if !ok {
			continue
		}

		ogrn, _ := resp["ogrn"].(string)
		ogrnip, _ := resp["ogrnip"].(string)

		trademark, _ := resp["trademark"].(string)
		if trademark == "" {
			trademark, _ = resp["brand"].(string)
		}
		if trademark == "" {
			trademark, _ = resp["supplierName"].(string)
		}

		out[supplierID] = domain.RegistryCredentials{
			INN:       inn,
			OGRN:      ogrn,
			OGRNIP:    ogrnip,
			Trademark: trademark,
		}
	}
	return out
}
