package usersbox_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerscout/internal/usersbox"
)

type fakeClient struct {
	mu        sync.Mutex
	responses map[string]map[string]any
	errs      map[string]error
	calls     []string
}

func (f *fakeClient) FetchJSON(_ context.Context, url string) (map[string]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("unexpected url")
	}
	return resp, nil
}

func searchURL(inn string) string {
	return fmt.Sprintf("https://api.usersbox.ru/v1/search?q=%s", inn)
}

func successResponse(items ...map[string]any) map[string]any {
	raw := make([]any, 0, len(items))
	for _, item := range items {
		raw = append(raw, any(item))
	}
	return map[string]any{
		"status": "success",
		"data":   map[string]any{"items": raw},
	}
}

func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		responses: map[string]map[string]any{
			searchURL("7701234567"): successResponse(map[string]any{"inn": "7701234567"}),
			searchURL("5001112223"): successResponse(map[string]any{"inn": "5001112223"}),
		},
		errs: map[string]error{
			searchURL("0000000000"): errors.New("boom"),
		},
	}

	fetcher := usersbox.NewFetcher([]string{"7701234567", "0000000000", "5001112223"}, client, 2)
	results := fetcher.Fetch(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, "success", results[0]["status"])
	assert.Empty(t, results[1], "failed request yields empty response")
	assert.Equal(t, "success", results[2]["status"])
	assert.Len(t, client.calls, 3)
}

func TestParserParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responses []map[string]any
		want      []string
	}{
		{
			name: "top level inn",
			responses: []map[string]any{
				successResponse(map[string]any{"inn": "7701234567", "phone": "+79001112233"}),
			},
			want: []string{"7701234567"},
		},
		{
			name: "nested inn",
			responses: []map[string]any{
				successResponse(map[string]any{
					"hit": map[string]any{
						"source": map[string]any{"inn": "5001112223"},
					},
				}),
			},
			want: []string{"5001112223"},
		},
		{
			name: "inn inside a list",
			responses: []map[string]any{
				successResponse(map[string]any{
					"hits": []any{
						map[string]any{"inn": "7812345678"},
					},
				}),
			},
			want: []string{"7812345678"},
		},
		{
			name: "non string inn ignored",
			responses: []map[string]any{
				successResponse(map[string]any{"inn": float64(7701234567)}),
			},
			want: []string{""},
		},
		{
			name: "error status dropped",
			responses: []map[string]any{
				{"status": "error", "data": map[string]any{"items": []any{map[string]any{"inn": "x"}}}},
			},
			want: nil,
		},
		{
			name:      "empty response dropped",
			responses: []map[string]any{{}},
			want:      nil,
		},
		{
			name: "multiple items from one response",
			responses: []map[string]any{
				successResponse(
					map[string]any{"inn": "7701234567"},
					map[string]any{"inn": "5001112223"},
				),
			},
			want: []string{"7701234567", "5001112223"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records := usersbox.Parser{}.Parse(tt.responses)
			got := make([]string, 0, len(records))
			for _, rec := range records {
				got = append(got, rec.INN)
			}
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBalance(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		responses: map[string]map[string]any{
			"https://api.usersbox.ru/v1/getMe": {
				"status": "success",
				"data":   map[string]any{"balance": 142.5},
			},
		},
	}

	balance, err := usersbox.Balance(context.Background(), client)
	require.NoError(t, err)
	assert.InDelta(t, 142.5, balance, 0.001)
}

func TestBalanceErrorStatus(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		responses: map[string]map[string]any{
			"https://api.usersbox.ru/v1/getMe": {"status": "error"},
		},
	}

	_, err := usersbox.Balance(context.Background(), client)
	require.Error(t, err)
}
