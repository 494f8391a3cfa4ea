package rusprofile_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerscout/internal/logger"
	"sellerscout/internal/rusprofile"
	"sellerscout/internal/transport"
)

const cardHTML = `
<html><body>
  <span id="req_ogrn">1023400000123</span>
  <span id="clip_inn">3401234567</span>
  <dl class="requisites-ip__list"><dt>Уставный капитал</dt><dd>10 000 руб.</dd></dl>
  <dl class="requisites-ip__list"><dt>Налоговый орган</dt><dd>ИФНС № 2 по г. Волгограду</dd></dl>
</body></html>`

const cardRowHTML = `
<html><body>
  <span id="clip_ogrnip">304770000000015</span>
  <div class="company-row">
    <div class="company-info__title">Налоговый орган</div>
    <div class="company-info__text">ИФНС № 46 по г. Москве</div>
  </div>
</body></html>`

const searchListingHTML = `
<html><body>
  <div class="company-item__title"><a href="/id/98765">ООО Ромашка</a></div>
  <div class="company-item__title"><a href="/about">не компания</a></div>
</body></html>`

const searchCanonicalHTML = `
<html><head>
  <link rel="canonical" href="https://www.rusprofile.ru/id/55555"/>
</head><body></body></html>`

func TestDocumentParser_Strategies(t *testing.T) {
	for _, strategy := range []string{rusprofile.StrategyGoquery, rusprofile.StrategyNetHTML} {
		t.Run(strategy, func(t *testing.T) {
			parser, err := rusprofile.NewDocumentParser(strategy)
			require.NoError(t, err)

			info := parser.ParseCard(cardHTML)
			assert.Equal(t, "1023400000123", info.OGRN)
			assert.Equal(t, "3401234567", info.INN)
			assert.Equal(t, "ИФНС № 2 по г. Волгограду", info.TaxOffice)

			rowInfo := parser.ParseCard(cardRowHTML)
			assert.Equal(t, "304770000000015", rowInfo.OGRNIP)
			assert.Equal(t, "ИФНС № 46 по г. Москве", rowInfo.TaxOffice)

			links := parser.ParseSearch(searchListingHTML)
			require.Len(t, links, 1)
			assert.Equal(t, "https://www.rusprofile.ru/id/98765", links[0])

			canonical := parser.ParseSearch(searchCanonicalHTML)
			require.Len(t, canonical, 1)
			assert.Equal(t, "https://www.rusprofile.ru/id/55555", canonical[0])
		})
	}
}

func TestNewDocumentParser_Unknown(t *testing.T) {
	_, err := rusprofile.NewDocumentParser("regex")
	assert.Error(t, err)
}

// fakeRegistry scripts HEAD and GET responses per URL.
type fakeRegistry struct {
	headStatus   int
	headLocation string
	pages        map[string]string
	headDelay    time.Duration
}

func (f *fakeRegistry) Head(ctx context.Context, url string, follow bool) (*transport.HeadResult, error) {
	if f.headDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.headDelay):
		}
	}
	headers := http.Header{}
	if f.headLocation != "" {
		headers.Set("Location", f.headLocation)
	}
	return &transport.HeadResult{StatusCode: f.headStatus, Headers: headers}, nil
}

func (f *fakeRegistry) FetchText(ctx context.Context, url string, headers map[string]string) (string, error) {
	return f.pages[url], nil
}

func newLookup(t *testing.T, client rusprofile.TextFetcher) *rusprofile.Lookup {
	t.Helper()

	parser, err := rusprofile.NewDocumentParser(rusprofile.StrategyGoquery)
	require.NoError(t, err)

	return rusprofile.NewLookup(client, parser, rusprofile.Config{
		SearchConcurrency: 2,
		CardConcurrency:   2,
		CompanyTimeout:    200 * time.Millisecond,
	}, logger.NewNoOp())
}

func TestLookup_Resolve_ViaRedirect(t *testing.T) {
	client := &fakeRegistry{
		headStatus:   http.StatusFound,
		headLocation: "/id/98765",
		pages: map[string]string{
			"https://www.rusprofile.ru/id/98765": cardHTML,
		},
	}

	infos := newLookup(t, client).Resolve(context.Background(), []string{"1023400000123&type=ul"}, 42)
	require.Len(t, infos, 1)
	assert.Equal(t, 42, infos[0].SellerID)
	assert.Equal(t, "1023400000123", infos[0].OGRN)
	assert.Equal(t, "ИФНС № 2 по г. Волгограду", infos[0].TaxOffice)
}

func TestLookup_Resolve_ViaSearchPage(t *testing.T) {
	client := &fakeRegistry{
		headStatus: http.StatusOK,
		pages: map[string]string{
			"https://www.rusprofile.ru/search?query=3401234567": searchListingHTML,
			"https://www.rusprofile.ru/id/98765":                cardHTML,
		},
	}

	infos := newLookup(t, client).Resolve(context.Background(), []string{"3401234567"}, 7)
	require.Len(t, infos, 1)
	assert.Equal(t, "3401234567", infos[0].INN)
}

func TestLookup_Resolve_SkipsInvalidQueries(t *testing.T) {
	client := &fakeRegistry{headStatus: http.StatusOK, pages: map[string]string{}}

	infos := newLookup(t, client).Resolve(context.Background(), []string{
		"", "abc", "123", "1234567890&type=ul", "1234567890&type=ul",
	}, 1)
	assert.Empty(t, infos)
}

func TestLookup_Resolve_TimeoutDropsSeller(t *testing.T) {
	client := &fakeRegistry{
		headStatus: http.StatusOK,
		headDelay:  time.Second, // beyond the 200ms company timeout
	}

	start := time.Now()
	infos := newLookup(t, client).Resolve(context.Background(), []string{"1234567890"}, 1)
	assert.Empty(t, infos)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name               string
		ogrn, ogrnip, inn  string
		want               string
	}{
		{"ogrn preferred", "1023400000123", "", "3401234567", "1023400000123&type=ul"},
		{"ogrnip fallback", "", "304770000000015", "772345678901", "304770000000015&type=ip"},
		{"inn fallback", "", "", "772345678901", "772345678901"},
		{"short ogrn ignored", "12345", "", "772345678901", "772345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rusprofile.BuildQuery(tt.ogrn, tt.ogrnip, tt.inn))
		})
	}
}
