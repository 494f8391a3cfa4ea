package rusprofile

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sellerscout/internal/domain"
)

var companyLinkRe = regexp.MustCompile(`^/id/\d+`)

// goqueryParser is the primary DocumentParser implementation.
type goqueryParser struct{}

// ParseSearch implements DocumentParser.
func (p *goqueryParser) ParseSearch(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	if href, exists := doc.Find("link[rel='canonical']").Attr("href"); exists && href != "" {
		return []string{href}
	}

	var links []string
	doc.Find("div.company-item__title").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if exists && companyLinkRe.MatchString(href) {
			links = append(links, baseURL+href)
		}
	})
	return links
}

// ParseCard implements DocumentParser.
func (p *goqueryParser) ParseCard(html string) domain.CompanyRegistryInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.CompanyRegistryInfo{}
	}

	info := domain.CompanyRegistryInfo{
		OGRN:   firstText(doc, "#req_ogrn", "#clip_ogrn"),
		OGRNIP: firstText(doc, "#req_ogrnip", "#clip_ogrnip"),
		INN:    firstText(doc, "#req_inn", "#clip_inn"),
	}

	// Definitions-list layout first, row layout as fallback.
	doc.Find("dl.requisites-ip__list").EachWithBreak(func(_ int, dl *goquery.Selection) bool {
		dt := strings.TrimSpace(dl.Find("dt").First().Text())
		for _, label := range taxOfficeLabels {
			if dt == label {
				info.TaxOffice = strings.TrimSpace(dl.Find("dd").First().Text())
				return false
			}
		}
		return true
	})

	if info.TaxOffice == "" {
		doc.Find("div.company-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			title := strings.TrimSpace(row.Find(".company-info__title").First().Text())
			for _, label := range taxOfficeLabels {
				if strings.HasPrefix(title, label) {
					info.TaxOffice = strings.TrimSpace(row.Find(".company-info__text").First().Text())
					return false
				}
			}
			return true
		})
	}

	return info
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
