package wb_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerscout/internal/logger"
	"sellerscout/internal/wb"
)

// fakeFetcher serves canned payloads by URL substring and records calls.
type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[string]map[string]any
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) FetchJSON(ctx context.Context, url string) (map[string]any, error) {
	f.calls.Add(1)

	cur := f.inflight.Add(1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	defer f.inflight.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	for key, payload := range f.payloads {
		if strings.Contains(url, key) {
			return payload, nil
		}
	}
	return map[string]any{}, nil
}

func TestCatalogFetcher_BuildURLs(t *testing.T) {
	f := wb.NewCatalogFetcher("cat=123", "electronic", 3, nil, 10)

	urls := f.BuildURLs()
	require.Len(t, urls, 3)
	assert.Contains(t, urls[0], "catalog/electronic/v2/catalog?cat=123")
	assert.Contains(t, urls[0], "page=1")
	assert.Contains(t, urls[2], "page=3")
}

func TestCatalogParser_FlattensPages(t *testing.T) {
	parser := wb.CatalogParser{}

	products := parser.Parse([]map[string]any{
		{"data": map[string]any{"products": []any{
			map[string]any{"id": float64(1), "name": "a", "supplierId": float64(100)},
			map[string]any{"id": float64(2), "name": "b", "supplierId": float64(200)},
		}}},
		{"data": map[string]any{"products": []any{
			map[string]any{"id": float64(3), "supplierId": float64(100)},
			map[string]any{"id": float64(4)}, // no supplier -> skipped
		}}},
		{}, // empty page payload
	})

	require.Len(t, products, 3)
	assert.Equal(t, []int{100, 200}, wb.SellerIDs(products))
}

func TestSupplierParser_DropsEntriesWithoutTaxID(t *testing.T) {
	parser := wb.SupplierParser{}

	creds := parser.Parse([]map[string]any{
		{"supplierId": float64(1), "inn": "7701234567", "ogrn": "1027700000001", "trademark": "Shop One"},
		{"supplierId": float64(2), "taxpayerCode": "503400000002", "brand": "Shop Two"},
		{"supplierId": float64(3), "supplierName": "No Tax ID"},
		{},
	})

	require.Len(t, creds, 2)
	assert.Equal(t, "7701234567", creds[1].INN)
	assert.Equal(t, "Shop One", creds[1].Trademark)
	assert.Equal(t, "503400000002", creds[2].INN)
	assert.Equal(t, "Shop Two", creds[2].Trademark)
}

func TestShipmentParser_SkipsMalformed(t *testing.T) {
	parser := wb.ShipmentParser{Log: logger.NewNoOp()}

	stats := parser.Parse([]map[string]any{
		{"id": float64(10), "saleItemQuantity": float64(5), "registrationDate": "2023-04-01T10:00:00Z"},
		{"id": float64(11), "saleItemQuantity": float64(7), "registrationDate": "not-a-date"},
		{"id": float64(12)},
		{},
	})

	require.Len(t, stats, 1)
	assert.Equal(t, 10, stats[0].SellerID)
	assert.Equal(t, 5, stats[0].SaleItemQuantity)
	assert.Equal(t, time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC), stats[0].RegistrationDate)
}

func TestFetchers_BoundedConcurrencyPreservesOrder(t *testing.T) {
	fetcher := &fakeFetcher{payloads: map[string]map[string]any{
		"/10": {"id": float64(10), "saleItemQuantity": float64(1), "registrationDate": "2023-01-01T00:00:00Z"},
		"/11": {"id": float64(11), "saleItemQuantity": float64(2), "registrationDate": "2023-01-02T00:00:00Z"},
		"/12": {"id": float64(12), "saleItemQuantity": float64(3), "registrationDate": "2023-01-03T00:00:00Z"},
	}}

	const concurrency = 2
	responses := wb.NewShipmentFetcher([]int{10, 11, 12}, fetcher, concurrency).Fetch(context.Background())

	require.Len(t, responses, 3)
	assert.Equal(t, int32(3), fetcher.calls.Load())
	assert.LessOrEqual(t, fetcher.peak.Load(), int32(concurrency))

	// Results arrive in request order regardless of completion order.
	for i, want := range []float64{10, 11, 12} {
		assert.Equal(t, want, responses[i]["id"])
	}
}
