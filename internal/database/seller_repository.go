package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sellerscout/internal/domain"
)

// SellerRepository handles database operations for enriched seller records.
type SellerRepository struct {
	db *sqlx.DB
}

// NewSellerRepository creates a new seller repository.
func NewSellerRepository(db *sqlx.DB) *SellerRepository {
	return &SellerRepository{db: db}
}

// Upsert inserts a seller record or refreshes it when the seller was
// collected before. Contact arrays replace the stored ones wholesale.
func (r *SellerRepository) Upsert(ctx context.Context, rec *domain.SellerRecord) error {
	query := `
		INSERT INTO sellers (supplier_id, store_name, inn, url, sale_count, reg_date,
			tax_office, ogrn, ogrnip, phone, email, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (supplier_id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			inn = EXCLUDED.inn,
			url = EXCLUDED.url,
			sale_count = EXCLUDED.sale_count,
			reg_date = EXCLUDED.reg_date,
			tax_office = EXCLUDED.tax_office,
			ogrn = EXCLUDED.ogrn,
			ogrnip = EXCLUDED.ogrnip,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			categories = EXCLUDED.categories,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(
		ctx, query,
		rec.SellerID, rec.StoreName, rec.INN, rec.URL, rec.SaleCount, rec.RegistrationDate,
		rec.TaxOffice, rec.OGRN, rec.OGRNIP,
		pq.StringArray(rec.Phones), pq.StringArray(rec.Emails), rec.Categories,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert seller %d: %w", rec.SellerID, err)
	}

	return nil
}

// FindByIDs returns the stored sellers among the given IDs, with the
// registry identifiers needed for region matching.
func (r *SellerRepository) FindByIDs(ctx context.Context, ids []int) ([]domain.SellerRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT supplier_id, COALESCE(ogrn, '') AS ogrn, COALESCE(ogrnip, '') AS ogrnip
		FROM sellers
		WHERE supplier_id = ANY($1)
	`

	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}

	var refs []domain.SellerRef
	if err := r.db.SelectContext(ctx, &refs, query, pq.Array(ids64)); err != nil {
		return nil, fmt.Errorf("failed to query stored sellers: %w", err)
	}

	return refs, nil
}
