package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const providerRequestTimeout = 10 * time.Second

// APIProvider fetches the proxy list from the proxyline panel API.
type APIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAPIProvider creates a provider for the given API key.
func NewAPIProvider(apiKey string) *APIProvider {
	return &APIProvider{
		apiKey:  apiKey,
		baseURL: "https://panel.proxyline.net/api/proxies/",
		client:  &http.Client{Timeout: providerRequestTimeout},
	}
}

// providerItem is one proxy entry in the provider response.
type providerItem struct {
	User     string `json:"user"`
	Password string `json:"password"`
	IP       string `json:"ip"`
	PortHTTP int    `json:"port_http"`
}

// providerResponse is the provider list payload.
type providerResponse struct {
	Results []providerItem `json:"results"`
}

// List fetches the current proxy list as user:pass@host:port strings.
func (p *APIProvider) List(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s?api_key=%s", p.baseURL, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create provider request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy provider returned status %d", resp.StatusCode)
	}

	var payload providerResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		return nil, fmt.Errorf("decode proxy list: %w", decodeErr)
	}

	proxies := make([]string, 0, len(payload.Results))
	for _, item := range payload.Results {
		proxies = append(proxies, fmt.Sprintf("%s:%s@%s:%d",
			item.User, item.Password, item.IP, item.PortHTTP))
	}
	return proxies, nil
}
