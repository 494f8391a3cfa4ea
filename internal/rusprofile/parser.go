// Package rusprofile resolves legal-registry cards for sellers: a search
// request (HEAD first, falling back to the HTML search page) locates the
// company card, and the card page yields the tax office and registration
// numbers.
package rusprofile

import (
	"fmt"

	"sellerscout/internal/domain"
)

// Parser strategy names.
const (
	StrategyGoquery = "goquery"
	StrategyNetHTML = "nethtml"
)

// Tax-office row labels on the card page.
var taxOfficeLabels = []string{"Налоговый орган", "Регистратор"}

// DocumentParser extracts structured data from registry HTML pages. The
// implementation is chosen once at startup, never per call.
type DocumentParser interface {
	// ParseSearch returns candidate card URLs from a search results page:
	// the canonical link when present, else company-item listing links.
	ParseSearch(html string) []string
	// ParseCard extracts tax office and registration numbers from a card page.
	ParseCard(html string) domain.CompanyRegistryInfo
}

// NewDocumentParser selects a parser implementation by strategy name.
func NewDocumentParser(strategy string) (DocumentParser, error) {
	switch strategy {
	case StrategyGoquery:
		return &goqueryParser{}, nil
	case StrategyNetHTML:
		return &netHTMLParser{}, nil
	default:
		return nil, fmt.Errorf("unknown html parser strategy %q", strategy)
	}
}
