package rusprofile

import (
	"strings"

	"golang.org/x/net/html"

	"sellerscout/internal/domain"
)

// netHTMLParser is the fallback DocumentParser implementation built on
// golang.org/x/net/html, for environments where the CSS engine is not
// wanted.
type netHTMLParser struct{}

// ParseSearch implements DocumentParser.
func (p *netHTMLParser) ParseSearch(rawHTML string) []string {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	if canonical := findNode(root, func(n *html.Node) bool {
		return n.Data == "link" && attr(n, "rel") == "canonical" && attr(n, "href") != ""
	}); canonical != nil {
		return []string{attr(canonical, "href")}
	}

	var links []string
	walk(root, func(n *html.Node) {
		if n.Data != "div" || !hasClass(n, "company-item__title") {
			return
		}
		a := findNode(n, func(c *html.Node) bool { return c.Data == "a" })
		if a == nil {
			return
		}
		if href := attr(a, "href"); companyLinkRe.MatchString(href) {
			links = append(links, baseURL+href)
		}
	})
	return links
}

// ParseCard implements DocumentParser.
func (p *netHTMLParser) ParseCard(rawHTML string) domain.CompanyRegistryInfo {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return domain.CompanyRegistryInfo{}
	}

	info := domain.CompanyRegistryInfo{
		OGRN:   textByID(root, "req_ogrn", "clip_ogrn"),
		OGRNIP: textByID(root, "req_ogrnip", "clip_ogrnip"),
		INN:    textByID(root, "req_inn", "clip_inn"),
	}

	walk(root, func(n *html.Node) {
		if info.TaxOffice != "" || n.Data != "dl" || !hasClass(n, "requisites-ip__list") {
			return
		}
		dt := findNode(n, func(c *html.Node) bool { return c.Data == "dt" })
		dd := findNode(n, func(c *html.Node) bool { return c.Data == "dd" })
		if dt == nil || dd == nil {
			return
		}
		label := nodeText(dt)
		for _, want := range taxOfficeLabels {
			if label == want {
				info.TaxOffice = nodeText(dd)
				return
			}
		}
	})

	if info.TaxOffice == "" {
		walk(root, func(n *html.Node) {
			if info.TaxOffice != "" || n.Data != "div" || !hasClass(n, "company-row") {
				return
			}
			title := findNode(n, func(c *html.Node) bool { return hasClass(c, "company-info__title") })
			text := findNode(n, func(c *html.Node) bool { return hasClass(c, "company-info__text") })
			if title == nil || text == nil {
				return
			}
			label := nodeText(title)
			for _, want := range taxOfficeLabels {
				if strings.HasPrefix(label, want) {
					info.TaxOffice = nodeText(text)
					return
				}
			}
		})
	}

	return info
}

// textByID returns the text of the first element whose id matches any of ids.
func textByID(root *html.Node, ids ...string) string {
	for _, id := range ids {
		if n := findNode(root, func(c *html.Node) bool { return attr(c, "id") == id }); n != nil {
			if text := nodeText(n); text != "" {
				return text
			}
		}
	}
	return ""
}

// walk visits every element node in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// findNode returns the first element node matching the predicate.
func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && match(n) {
			found = n
		}
	})
	return found
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the node carries the CSS class.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText concatenates the trimmed text content of a subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}
