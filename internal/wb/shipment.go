package wb

import (
	"context"
	"fmt"
	"time"

	"sellerscout/internal/domain"
	"sellerscout/internal/logger"
)

const shipmentBaseURL = "https://suppliers-shipment-2.wildberries.ru/api/v1/suppliers/%d"

// ShipmentFetcher resolves sale counts and registration dates per seller ID.
type ShipmentFetcher struct {
	ids         []int
	client      JSONFetcher
	concurrency int
}

// NewShipmentFetcher creates a shipment stats fetcher.
func NewShipmentFetcher(ids []int, client JSONFetcher, concurrency int) *ShipmentFetcher {
	return &ShipmentFetcher{ids: ids, client: client, concurrency: concurrency}
}

// Fetch retrieves one payload per seller ID, in request order.
func (f *ShipmentFetcher) Fetch(ctx context.Context) []map[string]any {
	urls := make([]string, 0, len(f.ids))
	for _, id := range f.ids {
		urls = append(urls, fmt.Sprintf(shipmentBaseURL, id))
	}
	return fetchAll(ctx, f.client, urls, f.concurrency)
}

// ShipmentParser turns shipment payloads into seller stats.
type ShipmentParser struct {
	Log logger.Interface
}

// Parse extracts stats, skipping empty and malformed payloads with a
// warning rather than failing the batch.
func (p ShipmentParser) Parse(responses []map[string]any) []domain.SellerStats {
	var stats []domain.SellerStats
	for _, resp := range responses {
		if len(resp) == 0 {
			continue
		}

		s, err := parseShipment(resp)
		if err != nil {
			if p.Log != nil {
				p.Log.Warn("skip malformed seller payload", "error", err.Error())
			}
			continue
		}
		stats = append(stats, s)
	}
	return stats
}

// parseShipment validates one shipment payload.
func parseShipment(resp map[string]any) (domain.SellerStats, error) {
	id, ok := asInt(resp["id"])
	if !ok {
		return domain.SellerStats{}, fmt.Errorf("missing seller id")
	}

	qty, ok := asInt(resp["saleItemQuantity"])
	if !ok {
		return domain.SellerStats{}, fmt.Errorf("seller %d: missing saleItemQuantity", id)
	}

	rawDate, _ := resp["registrationDate"].(string)
	regDate, err := parseRegistrationDate(rawDate)
	if err != nil {
		return domain.SellerStats{}, fmt.Errorf("seller %d: %w", id, err)
	}

	return domain.SellerStats{
		SellerID:         id,
		SaleItemQuantity: qty,
		RegistrationDate: regDate,
	}, nil
}

// parseRegistrationDate accepts RFC3339 instants, with or without the
// trailing Z, normalized to UTC.
func parseRegistrationDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing registrationDate")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable registrationDate %q", raw)
}
