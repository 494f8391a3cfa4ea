package rusprofile

import (
	"context"
	"net/http"
	"strings"
	"time"

	"sellerscout/internal/domain"
	"sellerscout/internal/logger"
	"sellerscout/internal/transport"
)

const (
	baseURL   = "https://www.rusprofile.ru"
	searchURL = baseURL + "/search?query="
)

// validTaxNumberLengths covers INN (10, 12), OGRN (13) and OGRNIP (15).
var validTaxNumberLengths = map[int]struct{}{10: {}, 12: {}, 13: {}, 15: {}}

// TextFetcher is the transport surface the lookup needs.
type TextFetcher interface {
	FetchText(ctx context.Context, url string, headers map[string]string) (string, error)
	Head(ctx context.Context, url string, followRedirects bool) (*transport.HeadResult, error)
}

// Config holds lookup settings.
type Config struct {
	SearchConcurrency int
	CardConcurrency   int
	// CompanyTimeout bounds one seller's end-to-end resolution, distinct
	// from the transport request timeout.
	CompanyTimeout time.Duration
}

// Lookup resolves registry cards for query strings of the form
// "1234567890&type=ul", "123456789012345&type=ip" or a bare INN.
type Lookup struct {
	client    TextFetcher
	parser    DocumentParser
	cfg       Config
	log       logger.Interface
	semSearch chan struct{}
	semCard   chan struct{}
}

// NewLookup creates a registry lookup.
func NewLookup(client TextFetcher, parser DocumentParser, cfg Config, log logger.Interface) *Lookup {
	if cfg.SearchConcurrency < 1 {
		cfg.SearchConcurrency = 1
	}
	if cfg.CardConcurrency < 1 {
		cfg.CardConcurrency = 1
	}
	if cfg.CompanyTimeout <= 0 {
		cfg.CompanyTimeout = 5 * time.Second
	}
	return &Lookup{
		client:    client,
		parser:    parser,
		cfg:       cfg,
		log:       log,
		semSearch: make(chan struct{}, cfg.SearchConcurrency),
		semCard:   make(chan struct{}, cfg.CardConcurrency),
	}
}

// Resolve looks up the registry cards for the given queries and assigns the
// owning seller ID. Invalid or duplicate queries are skipped; a timeout or
// failure on one query drops only that query's result.
func (l *Lookup) Resolve(ctx context.Context, queries []string, sellerID int) []domain.CompanyRegistryInfo {
	uniq := dedupeQueries(queries)
	if len(uniq) == 0 {
		return nil
	}

	type outcome struct {
		info *domain.CompanyRegistryInfo
	}
	results := make([]outcome, len(uniq))

	done := make(chan int, len(uniq))
	for i, q := range uniq {
		go func(idx int, query string) {
			defer func() { done <- idx }()

			qctx, cancel := context.WithTimeout(ctx, l.cfg.CompanyTimeout)
			defer cancel()

			info, err := l.resolveOne(qctx, query)
			if err != nil {
				l.log.Warn("registry lookup failed", "query", query, "error", err.Error())
				return
			}
			results[idx].info = info
		}(i, q)
	}
	for range uniq {
		<-done
	}

	var out []domain.CompanyRegistryInfo
	for _, r := range results {
		if r.info == nil {
			continue
		}
		info := *r.info
		info.SellerID = sellerID
		out = append(out, info)
	}
	return out
}

// resolveOne locates and parses one company card. Returns (nil, nil) when
// the search finds no card.
func (l *Lookup) resolveOne(ctx context.Context, query string) (*domain.CompanyRegistryInfo, error) {
	cardURL, err := l.resolveCardURL(ctx, query)
	if err != nil {
		return nil, err
	}
	if cardURL == "" {
		return nil, nil
	}

	l.semCard <- struct{}{}
	cardHTML, err := l.client.FetchText(ctx, cardURL, map[string]string{"Accept": "text/html"})
	<-l.semCard
	if err != nil {
		return nil, err
	}
	if cardHTML == "" {
		return nil, nil
	}

	info := l.parser.ParseCard(cardHTML)
	return &info, nil
}

// resolveCardURL finds the card URL for a query: a HEAD redirect when the
// search resolves directly, otherwise the first result link on the search
// page.
func (l *Lookup) resolveCardURL(ctx context.Context, query string) (string, error) {
	url := searchURL + query

	l.semSearch <- struct{}{}
	head, err := l.client.Head(ctx, url, false)
	<-l.semSearch
	if err != nil {
		return "", err
	}

	if head.StatusCode == http.StatusMovedPermanently || head.StatusCode == http.StatusFound {
		if loc := head.Headers.Get("Location"); loc != "" {
			if strings.HasPrefix(loc, "http") {
				return loc, nil
			}
			return baseURL + loc, nil
		}
	}

	l.semSearch <- struct{}{}
	searchHTML, err := l.client.FetchText(ctx, url, map[string]string{"Accept": "text/html"})
	<-l.semSearch
	if err != nil {
		return "", err
	}

	links := l.parser.ParseSearch(searchHTML)
	if len(links) == 0 {
		return "", nil
	}
	return links[0], nil
}

// dedupeQueries drops blanks, duplicates and queries whose numeric part is
// not a plausible tax number.
func dedupeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	var uniq []string
	for _, raw := range queries {
		q := strings.TrimSpace(raw)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}

		num, _, _ := strings.Cut(q, "&")
		if !isValidTaxNumber(num) {
			continue
		}
		uniq = append(uniq, q)
	}
	return uniq
}

// isValidTaxNumber reports whether the string is all digits with an
// INN/OGRN/OGRNIP length.
func isValidTaxNumber(s string) bool {
	if _, ok := validTaxNumberLengths[len(s)]; !ok {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BuildQuery chooses the registry search query for a seller: a 13-char OGRN,
// else a 15-char OGRNIP, else the raw INN.
func BuildQuery(ogrn, ogrnip, inn string) string {
	if len(ogrn) == domain.OGRNLength {
		return ogrn + "&type=ul"
	}
	if len(ogrnip) == domain.OGRNIPLength {
		return ogrnip + "&type=ip"
	}
	return inn
}
