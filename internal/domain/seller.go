// Package domain provides domain models used across the application.
package domain

import (
	"fmt"
	"time"
)

// Registration number lengths. OGRN identifies a legal entity, OGRNIP a sole
// proprietor; anything of a different length is stored as absent.
const (
	OGRNLength   = 13
	OGRNIPLength = 15
)

// CatalogProduct is a single raw listing item from the catalog API.
// Only the supplier ID is consumed downstream.
type CatalogProduct struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SupplierID int    `json:"supplierId"`
}

// RegistryCredentials holds the registry identifiers resolved for one seller.
type RegistryCredentials struct {
	INN       string `json:"inn"`
	OGRN      string `json:"ogrn"`
	OGRNIP    string `json:"ogrnip"`
	Trademark string `json:"trademark"`
}

// SellerStats combines shipment statistics with the registry credentials
// carried over from the registry lookup. Identity is SellerID.
type SellerStats struct {
	SellerID         int       `json:"seller_id"`
	SaleItemQuantity int       `json:"sale_item_quantity"`
	RegistrationDate time.Time `json:"registration_date"`

	INN       string `json:"inn,omitempty"`
	OGRN      string `json:"ogrn,omitempty"`
	OGRNIP    string `json:"ogrnip,omitempty"`
	Trademark string `json:"trademark,omitempty"`
}

// StoreURL returns the public storefront URL for the seller.
func (s *SellerStats) StoreURL() string {
	return SellerURL(s.SellerID)
}

// SellerURL builds the public storefront URL for a seller ID.
func SellerURL(sellerID int) string {
	return fmt.Sprintf("https://www.wildberries.ru/seller/%d", sellerID)
}

// CompanyRegistryInfo is the result of a legal-registry card lookup.
// SellerID is assigned after the fetch, once the card is tied back to the
// seller that triggered the lookup.
type CompanyRegistryInfo struct {
	TaxOffice string `json:"tax_office"`
	OGRN      string `json:"ogrn,omitempty"`
	OGRNIP    string `json:"ogrnip,omitempty"`
	INN       string `json:"inn,omitempty"`
	SellerID  int    `json:"seller_id,omitempty"`
}

// SellerRecord is the final enriched artifact persisted for a seller with at
// least one resolved contact.
type SellerRecord struct {
	SellerID         int       `db:"supplier_id"       json:"seller_id"`
	StoreName        string    `db:"store_name"        json:"store_name"`
	INN              string    `db:"inn"               json:"inn"`
	URL              string    `db:"url"               json:"url"`
	SaleCount        int       `db:"sale_count"        json:"sale_count"`
	RegistrationDate time.Time `db:"reg_date"          json:"registration_date"`
	TaxOffice        string    `db:"tax_office"        json:"tax_office"`
	OGRN             string    `db:"ogrn"              json:"ogrn,omitempty"`
	OGRNIP           string    `db:"ogrnip"            json:"ogrnip,omitempty"`
	Phones           []string  `db:"phone"             json:"phones"`
	Emails           []string  `db:"email"             json:"emails"`
	Categories       string    `db:"categories"        json:"categories,omitempty"`
}

// HasContacts reports whether at least one phone or email was resolved.
func (r *SellerRecord) HasContacts() bool {
	return len(r.Phones) > 0 || len(r.Emails) > 0
}

// SellerRef is the narrow projection of a stored seller used by the
// already-collected partition step.
type SellerRef struct {
	SellerID int    `db:"supplier_id" json:"seller_id"`
	OGRN     string `db:"ogrn"        json:"ogrn,omitempty"`
	OGRNIP   string `db:"ogrnip"      json:"ogrnip,omitempty"`
}

// ContactCacheEntry marks a seller for which no contact was found, so the
// lookup is not repeated before the retry window elapses.
type ContactCacheEntry struct {
	SellerID         int       `db:"supplier_id" json:"seller_id"`
	StoreName        string    `db:"store_name"  json:"store_name"`
	INN              string    `db:"inn"         json:"inn"`
	URL              string    `db:"url"         json:"url"`
	SaleCount        int       `db:"sale_count"  json:"sale_count"`
	RegistrationDate time.Time `db:"reg_date"    json:"registration_date"`
	TaxOffice        string    `db:"tax_office"  json:"tax_office"`
	OGRN             string    `db:"ogrn"        json:"ogrn,omitempty"`
	OGRNIP           string    `db:"ogrnip"      json:"ogrnip,omitempty"`
	LastTryAt        time.Time `db:"last_try_at" json:"last_try_at"`
}

// RegionCodes extracts the candidate registering region codes from a
// seller's identifiers, in priority order: OGRN digits 4-5, OGRNIP digits
// 4-5, the first two digits of the INN. Identifiers too short to carry a
// code are skipped; a seller matches a region when any candidate does.
func RegionCodes(ogrn, ogrnip, inn string) []string {
	var codes []string
	if len(ogrn) >= 5 {
		codes = append(codes, ogrn[3:5])
	}
	if len(ogrnip) >= 5 {
		codes = append(codes, ogrnip[3:5])
	}
	if len(inn) >= 2 {
		codes = append(codes, inn[:2])
	}
	return codes
}
