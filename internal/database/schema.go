package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema for the collection tables. Call Migrate() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS sellers (
	supplier_id BIGINT PRIMARY KEY,
	store_name TEXT NOT NULL DEFAULT '',
	inn TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	sale_count INTEGER NOT NULL DEFAULT 0,
	reg_date TIMESTAMPTZ,
	tax_office TEXT NOT NULL DEFAULT '',
	ogrn TEXT,
	ogrnip TEXT,
	phone TEXT[] NOT NULL DEFAULT '{}',
	email TEXT[] NOT NULL DEFAULT '{}',
	categories TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS seller_contacts_cache (
	supplier_id BIGINT PRIMARY KEY,
	store_name TEXT NOT NULL DEFAULT '',
	inn TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	sale_count INTEGER NOT NULL DEFAULT 0,
	reg_date TIMESTAMPTZ,
	tax_office TEXT NOT NULL DEFAULT '',
	ogrn TEXT,
	ogrnip TEXT,
	last_try_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS collection_logs (
	id BIGSERIAL PRIMARY KEY,
	parser_type TEXT NOT NULL,
	params_hash TEXT NOT NULL,
	params JSONB NOT NULL DEFAULT '{}',
	collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (parser_type, params_hash)
);

CREATE INDEX IF NOT EXISTS idx_sellers_ogrn ON sellers(ogrn) WHERE ogrn IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_contacts_cache_last_try ON seller_contacts_cache(last_try_at);
`

// Migrate applies the schema. All statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
