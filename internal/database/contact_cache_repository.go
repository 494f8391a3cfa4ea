package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sellerscout/internal/domain"
)

// ContactCacheRepository handles database operations for the contact retry
// cache. An entry means the seller yielded no contacts last time, and the
// lookup should not be repeated until the retry window elapses.
type ContactCacheRepository struct {
	db *sqlx.DB
}

// NewContactCacheRepository creates a new contact cache repository.
func NewContactCacheRepository(db *sqlx.DB) *ContactCacheRepository {
	return &ContactCacheRepository{db: db}
}

// Get returns the cache entry for a seller, or nil when none exists.
func (r *ContactCacheRepository) Get(ctx context.Context, sellerID int) (*domain.ContactCacheEntry, error) {
	query := `
		SELECT supplier_id, store_name, inn, url, sale_count, reg_date,
			tax_office, COALESCE(ogrn, '') AS ogrn, COALESCE(ogrnip, '') AS ogrnip, last_try_at
		FROM seller_contacts_cache
		WHERE supplier_id = $1
	`

	var entry domain.ContactCacheEntry
	err := r.db.GetContext(ctx, &entry, query, sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contact cache for seller %d: %w", sellerID, err)
	}

	return &entry, nil
}

// Upsert stores a no-contact entry for the seller and stamps last_try_at.
func (r *ContactCacheRepository) Upsert(ctx context.Context, entry *domain.ContactCacheEntry) error {
	query := `
		INSERT INTO seller_contacts_cache (supplier_id, store_name, inn, url, sale_count,
			reg_date, tax_office, ogrn, ogrnip, last_try_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (supplier_id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			inn = EXCLUDED.inn,
			url = EXCLUDED.url,
			sale_count = EXCLUDED.sale_count,
			reg_date = EXCLUDED.reg_date,
			tax_office = EXCLUDED.tax_office,
			ogrn = EXCLUDED.ogrn,
			ogrnip = EXCLUDED.ogrnip,
			last_try_at = NOW()
	`

	_, err := r.db.ExecContext(
		ctx, query,
		entry.SellerID, entry.StoreName, entry.INN, entry.URL, entry.SaleCount,
		entry.RegistrationDate, entry.TaxOffice, entry.OGRN, entry.OGRNIP,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert contact cache for seller %d: %w", entry.SellerID, err)
	}

	return nil
}

// Touch refreshes last_try_at for an existing entry without changing it.
func (r *ContactCacheRepository) Touch(ctx context.Context, sellerID int) error {
	query := `UPDATE seller_contacts_cache SET last_try_at = NOW() WHERE supplier_id = $1`

	if _, err := r.db.ExecContext(ctx, query, sellerID); err != nil {
		return fmt.Errorf("failed to touch contact cache for seller %d: %w", sellerID, err)
	}

	return nil
}

// Delete removes the entry once contacts have been found for the seller.
func (r *ContactCacheRepository) Delete(ctx context.Context, sellerID int) error {
	query := `DELETE FROM seller_contacts_cache WHERE supplier_id = $1`

	if _, err := r.db.ExecContext(ctx, query, sellerID); err != nil {
		return fmt.Errorf("failed to delete contact cache for seller %d: %w", sellerID, err)
	}

	return nil
}
