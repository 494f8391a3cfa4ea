// Package pipeline orchestrates the catalog, registry, shipment, legal
// registry and contact sources into enriched seller records.
package pipeline

import (
	"context"
	"sync"
	"time"

	"sellerscout/internal/config"
	"sellerscout/internal/domain"
	"sellerscout/internal/logger"
	"sellerscout/internal/rusprofile"
	"sellerscout/internal/wb"
)

// contactRetryWindow is how long a no-contact seller stays gated before the
// lookup is attempted again.
const contactRetryWindow = 30 * 24 * time.Hour

// SellerStore persists enriched seller records.
type SellerStore interface {
	Upsert(ctx context.Context, rec *domain.SellerRecord) error
	FindByIDs(ctx context.Context, ids []int) ([]domain.SellerRef, error)
}

// ContactCacheStore tracks sellers whose contact lookup came up empty.
type ContactCacheStore interface {
	Get(ctx context.Context, sellerID int) (*domain.ContactCacheEntry, error)
	Upsert(ctx context.Context, entry *domain.ContactCacheEntry) error
	Touch(ctx context.Context, sellerID int) error
	Delete(ctx context.Context, sellerID int) error
}

// RegistryResolver resolves legal-registry cards for tax-number queries.
type RegistryResolver interface {
	Resolve(ctx context.Context, queries []string, sellerID int) []domain.CompanyRegistryInfo
}

// ContactSource looks up phones and emails for a tax ID.
type ContactSource interface {
	Lookup(ctx context.Context, inn string) (phones, emails []string)
}

// Pipeline runs one collection query end to end.
type Pipeline struct {
	client   wb.JSONFetcher
	registry RegistryResolver
	contacts ContactSource
	sellers  SellerStore
	cache    ContactCacheStore
	reqCache *RequestCache
	cfg      config.ParserConfig
	log      logger.Interface
	now      func() time.Time
}

// New creates a pipeline. The request cache is owned by the pipeline and
// shared across Collect calls.
func New(
	client wb.JSONFetcher,
	registry RegistryResolver,
	contacts ContactSource,
	sellers SellerStore,
	cache ContactCacheStore,
	cfg config.ParserConfig,
	log logger.Interface,
) *Pipeline {
	return &Pipeline{
		client:   client,
		registry: registry,
		contacts: contacts,
		sellers:  sellers,
		cache:    cache,
		reqCache: NewRequestCache(cfg.CacheTTL),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// pendingSeller is a seller awaiting its contact lookup result.
type pendingSeller struct {
	record  domain.SellerRecord
	stats   domain.SellerStats
	phones  []string
	emails  []string
	entryAt time.Time // last_try_at of an existing cache entry, zero if none
	cached  bool
}

// Collect runs the query and returns the enriched records in discovery
// order. truncated reports whether the limit cut the run short. A single
// seller's enrichment failure drops only that seller.
func (p *Pipeline) Collect(ctx context.Context, q Query) (records []domain.SellerRecord, truncated bool, err error) {
	signature := q.Signature()
	if cached, wasTruncated, ok := p.reqCache.Get(signature, q.Limit); ok {
		p.log.Debug("request cache hit", "signature", signature)
		return cached, wasTruncated, nil
	}

	stats, err := p.candidates(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}

	pending, truncated := p.enrich(ctx, q, stats)
	records = p.persist(ctx, pending)

	// A cancelled run sees degraded fetches; caching it would serve the
	// degraded result to genuine queries for the full TTL.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}

	if records == nil {
		records = []domain.SellerRecord{}
	}
	p.reqCache.Set(signature, q.Limit, records, truncated)

	return records, truncated, nil
}

// candidates runs the sequential fetch stages: catalog, stored-seller
// partition, registry credentials, region filter, shipment stats and the
// sales and date filters. The returned stats carry credentials and follow
// catalog discovery order.
func (p *Pipeline) candidates(ctx context.Context, q Query) ([]domain.SellerStats, error) {
	catalog := wb.NewCatalogFetcher(q.Category, q.Shard, q.Pages, p.client, p.cfg.CatalogConcurrency)
	products := wb.CatalogParser{}.Parse(catalog.Fetch(ctx))
	ids := wb.SellerIDs(products)
	if len(ids) == 0 {
		return nil, nil
	}

	newIDs, err := p.partitionStored(ctx, ids, q.Regions)
	if err != nil {
		return nil, err
	}
	if len(newIDs) == 0 {
		return nil, nil
	}

	supplier := wb.NewSupplierFetcher(newIDs, p.client, p.cfg.SupplierConcurrency)
	creds := wb.SupplierParser{}.Parse(supplier.Fetch(ctx))

	regionSet := make(map[string]struct{}, len(q.Regions))
	for _, r := range q.Regions {
		regionSet[r] = struct{}{}
	}

	var filteredIDs []int
	for _, id := range newIDs {
		info, ok := creds[id]
		if !ok {
			continue
		}
		if matchesRegion(regionSet, domain.RegionCodes(info.OGRN, info.OGRNIP, info.INN)) {
			filteredIDs = append(filteredIDs, id)
		}
	}
	if len(filteredIDs) == 0 {
		return nil, nil
	}

	shipment := wb.NewShipmentFetcher(filteredIDs, p.client, p.cfg.ShipmentConcurrency)
	stats := wb.ShipmentParser{Log: p.log}.Parse(shipment.Fetch(ctx))

	var out []domain.SellerStats
	for _, s := range stats {
		if !okSales(s, q.MinSales, q.MaxSales) || !okDate(s, q.MinRegDate, q.MaxRegDate) {
			continue
		}
		info := creds[s.SellerID]
		s.INN = info.INN
		s.OGRN = info.OGRN
		s.OGRNIP = info.OGRNIP
		s.Trademark = info.Trademark
		out = append(out, s)
	}

	return out, nil
}

// partitionStored drops sellers that are already collected for one of the
// requested regions. Stored sellers registered elsewhere stay in the run.
func (p *Pipeline) partitionStored(ctx context.Context, ids []int, regions []string) ([]int, error) {
	refs, err := p.sellers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	regionSet := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		regionSet[r] = struct{}{}
	}

	collected := make(map[int]struct{})
	for _, ref := range refs {
		code := storedRegionCode(ref)
		if _, ok := regionSet[code]; ok && code != "" {
			collected[ref.SellerID] = struct{}{}
		}
	}

	newIDs := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := collected[id]; !ok {
			newIDs = append(newIDs, id)
		}
	}
	return newIDs, nil
}

// matchesRegion reports whether any candidate region code is requested.
func matchesRegion(set map[string]struct{}, codes []string) bool {
	for _, code := range codes {
		if _, ok := set[code]; ok {
			return true
		}
	}
	return false
}

// storedRegionCode reads the region from a stored seller's registration
// numbers only. Stored rows without either number never region-match.
func storedRegionCode(ref domain.SellerRef) string {
	if len(ref.OGRN) >= 5 {
		return ref.OGRN[3:5]
	}
	if len(ref.OGRNIP) >= 5 {
		return ref.OGRNIP[3:5]
	}
	return ""
}

// enrich walks qualifying sellers in discovery order, applies the contact
// retry gate and the limit, resolves the legal-registry card per seller and
// launches the contact lookups. All lookups are awaited before returning.
func (p *Pipeline) enrich(ctx context.Context, q Query, stats []domain.SellerStats) (pending []*pendingSeller, truncated bool) {
	retryDeadline := p.now().Add(-contactRetryWindow)

	for _, s := range stats {
		if q.Limit > 0 && len(pending) >= q.Limit {
			truncated = true
			break
		}

		entry, err := p.cache.Get(ctx, s.SellerID)
		if err != nil {
			p.log.Warn("contact cache read failed", "seller_id", s.SellerID, "error", err)
		}
		if entry != nil && entry.LastTryAt.After(retryDeadline) {
			if touchErr := p.cache.Touch(ctx, s.SellerID); touchErr != nil {
				p.log.Warn("contact cache touch failed", "seller_id", s.SellerID, "error", touchErr)
			}
			continue
		}

		query := rusprofile.BuildQuery(s.OGRN, s.OGRNIP, s.INN)
		infos := p.registry.Resolve(ctx, []string{query}, s.SellerID)
		if len(infos) == 0 {
			continue
		}

		ps := &pendingSeller{
			record: buildRecord(s, infos[0], q.CategoryName),
			stats:  s,
			cached: entry != nil,
		}
		if entry != nil {
			ps.entryAt = entry.LastTryAt
		}
		pending = append(pending, ps)
	}

	var wg sync.WaitGroup
	for _, ps := range pending {
		wg.Add(1)
		go func(ps *pendingSeller, inn string) {
			defer wg.Done()
			ps.phones, ps.emails = p.contacts.Lookup(ctx, inn)
		}(ps, contactINN(ps))
	}
	wg.Wait()

	return pending, truncated
}

func contactINN(ps *pendingSeller) string {
	if ps.record.INN != "" {
		return ps.record.INN
	}
	return ps.stats.INN
}

// persist writes each enriched seller to the right store: the seller table
// when contacts were found, the retry cache otherwise. Persistence errors
// drop the affected seller and keep the batch going.
func (p *Pipeline) persist(ctx context.Context, pending []*pendingSeller) []domain.SellerRecord {
	var records []domain.SellerRecord
	for _, ps := range pending {
		ps.record.Phones = ps.phones
		ps.record.Emails = ps.emails

		if ps.record.HasContacts() {
			if err := p.sellers.Upsert(ctx, &ps.record); err != nil {
				p.log.Error("seller upsert failed", "seller_id", ps.record.SellerID, "error", err)
				continue
			}
			if err := p.cache.Delete(ctx, ps.record.SellerID); err != nil {
				p.log.Warn("contact cache delete failed", "seller_id", ps.record.SellerID, "error", err)
			}
			records = append(records, ps.record)
			continue
		}

		if ps.cached {
			if err := p.cache.Touch(ctx, ps.record.SellerID); err != nil {
				p.log.Warn("contact cache touch failed", "seller_id", ps.record.SellerID, "error", err)
			}
			continue
		}
		if err := p.cache.Upsert(ctx, cacheEntryFor(ps)); err != nil {
			p.log.Warn("contact cache upsert failed", "seller_id", ps.record.SellerID, "error", err)
		}
	}
	return records
}

func buildRecord(s domain.SellerStats, info domain.CompanyRegistryInfo, categoryName string) domain.SellerRecord {
	rec := domain.SellerRecord{
		SellerID:         s.SellerID,
		StoreName:        s.Trademark,
		INN:              info.INN,
		URL:              domain.SellerURL(s.SellerID),
		SaleCount:        s.SaleItemQuantity,
		RegistrationDate: s.RegistrationDate,
		TaxOffice:        info.TaxOffice,
		Categories:       categoryName,
	}
	if len(s.OGRN) == domain.OGRNLength {
		rec.OGRN = s.OGRN
	}
	if len(s.OGRNIP) == domain.OGRNIPLength {
		rec.OGRNIP = s.OGRNIP
	}
	return rec
}

func cacheEntryFor(ps *pendingSeller) *domain.ContactCacheEntry {
	return &domain.ContactCacheEntry{
		SellerID:         ps.record.SellerID,
		StoreName:        ps.record.StoreName,
		INN:              ps.record.INN,
		URL:              ps.record.URL,
		SaleCount:        ps.record.SaleCount,
		RegistrationDate: ps.record.RegistrationDate,
		TaxOffice:        ps.record.TaxOffice,
		OGRN:             ps.record.OGRN,
		OGRNIP:           ps.record.OGRNIP,
	}
}

func okSales(s domain.SellerStats, minSales, maxSales int) bool {
	if s.SaleItemQuantity < minSales {
		return false
	}
	if maxSales > 0 && s.SaleItemQuantity > maxSales {
		return false
	}
	return true
}

func okDate(s domain.SellerStats, minDate, maxDate time.Time) bool {
	if !minDate.IsZero() && s.RegistrationDate.Before(minDate) {
		return false
	}
	if !maxDate.IsZero() && s.RegistrationDate.After(maxDate) {
		return false
	}
	return true
}
