// Package wb implements the marketplace source fetch/parse pairs: catalog
// listings, supplier registry lookups and shipment statistics.
package wb

import (
	"context"
	"sync"
)

// JSONFetcher is the transport surface the fetchers need.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string) (map[string]any, error)
}

// fetchAll executes the URLs under a counting semaphore and returns the
// payloads in request order. A failed request contributes an empty payload;
// it never aborts the batch.
func fetchAll(ctx context.Context, client JSONFetcher, urls []string, concurrency int) []map[string]any {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]map[string]any, len(urls))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			payload, err := client.FetchJSON(ctx, url)
			if err != nil {
				results[idx] = map[string]any{}
				return
			}
			results[idx] = payload
		}(i, u)
	}
	wg.Wait()

	return results
}
