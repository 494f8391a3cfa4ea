// Package usersbox queries the third-party contact-lookup API by tax ID and
// extracts contact payload fragments from its loosely-shaped responses.
package usersbox

import (
	"context"
	"fmt"
	"sync"
)

const (
	searchURL = "https://api.usersbox.ru/v1/search?q=%s"
	getMeURL  = "https://api.usersbox.ru/v1/getMe"
)

// JSONFetcher is the transport surface the fetcher needs. The transport is
// expected to carry the API authorization header.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string) (map[string]any, error)
}

// Record is one contact-payload fragment tied to the tax ID found inside it.
type Record struct {
	INN     string
	Payload map[string]any
}

// Fetcher queries the search endpoint per INN under a concurrency limit.
type Fetcher struct {
	inns        []string
	client      JSONFetcher
	concurrency int
}

// NewFetcher creates a contact-lookup fetcher.
func NewFetcher(inns []string, client JSONFetcher, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{inns: inns, client: client, concurrency: concurrency}
}

// Fetch retrieves one response per INN, in request order.
func (f *Fetcher) Fetch(ctx context.Context) []map[string]any {
	results := make([]map[string]any, len(f.inns))
	sem := make(chan struct{}, f.concurrency)

	var wg sync.WaitGroup
	for i, inn := range f.inns {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			payload, err := f.client.FetchJSON(ctx, fmt.Sprintf(searchURL, q))
			if err != nil {
				results[idx] = map[string]any{}
				return
			}
			results[idx] = payload
		}(i, inn)
	}
	wg.Wait()

	return results
}

// Parser unwraps data.items and yields one Record per item.
type Parser struct{}

// Parse drops non-success responses and responses without items. Each item
// is searched depth-first for the first string-valued "inn" field.
func (Parser) Parse(responses []map[string]any) []Record {
	var out []Record
	for _, resp := range responses {
		if len(resp) == 0 {
			continue
		}
		if status, _ := resp["status"].(string); status != "success" {
			continue
		}

		data, ok := resp["data"].(map[string]any)
		if !ok {
			continue
		}
		items, ok := data["items"].([]any)
		if !ok || len(items) == 0 {
			continue
		}

		for _, raw := range items {
			item, itemOK := raw.(map[string]any)
			if !itemOK {
				continue
			}
			out = append(out, Record{INN: digINN(item), Payload: item})
		}
	}
	return out
}

// digINN searches the payload depth-first for the first string field named
// "inn". The upstream payload shape is not contractually stable, so the
// traversal stays generic over maps, slices and scalars.
func digINN(payload map[string]any) string {
	if inn, ok := payload["inn"].(string); ok {
		return inn
	}
	for _, v := range payload {
		if inn := digValue(v); inn != "" {
			return inn
		}
	}
	return ""
}

func digValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return digINN(val)
	case []any:
		for _, item := range val {
			if nested, ok := item.(map[string]any); ok {
				if inn := digINN(nested); inn != "" {
					return inn
				}
			}
		}
	}
	return ""
}

// Balance returns the account balance from the getMe endpoint.
func Balance(ctx context.Context, client JSONFetcher) (float64, error) {
	resp, err := client.FetchJSON(ctx, getMeURL)
	if err != nil {
		return 0, fmt.Errorf("usersbox getMe: %w", err)
	}
	if status, _ := resp["status"].(string); status != "success" {
		return 0, fmt.Errorf("usersbox getMe: unexpected status %q", status)
	}

	data, ok := resp["data"].(map[string]any)
	if !ok {
		return 0, nil
	}
	balance, _ := data["balance"].(float64)
	return balance, nil
}
