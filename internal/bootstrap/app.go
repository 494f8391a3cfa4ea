// Package bootstrap handles application initialization and wiring.
//
// The bootstrap process follows these phases:
//   - Phase 1: Config & Logger - Load configuration and create logger
//   - Phase 2: Transport - Proxy pool and HTTP clients
//   - Phase 3: Database - Connect to PostgreSQL and create repositories
//   - Phase 4: Services - Legal-registry lookup, contact source, pipeline
package bootstrap

import (
	"fmt"

	"sellerscout/internal/config"
	"sellerscout/internal/logger"
	"sellerscout/internal/pipeline"
	"sellerscout/internal/proxy"
	"sellerscout/internal/rusprofile"
	"sellerscout/internal/transport"
)

// Deps holds the config and logger every command needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewCommandDeps loads configuration and builds the logger.
func NewCommandDeps() (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// Transport bundles the proxy pool and the HTTP clients.
type Transport struct {
	Pool     *proxy.Pool
	Client   *transport.Client // marketplace and registry endpoints
	Usersbox *transport.Client // contact API, carries the auth header
}

// SetupTransport builds the proxy pool and starts the HTTP clients.
func SetupTransport(cfg *config.Config, log logger.Interface) *Transport {
	pool := proxy.NewPool(proxy.Config{
		BanTTL:    cfg.Proxy.BanTTL,
		CacheTTL:  cfg.Proxy.CacheTTL,
		CacheFile: cfg.Proxy.CacheFile,
	}, proxy.NewAPIProvider(cfg.Proxy.APIKey), log)

	transportCfg := transport.Config{
		Timeout:      cfg.Parser.Timeout,
		Retries:      cfg.Parser.Retries,
		Backoff:      cfg.Parser.Backoff,
		ConnLimit:    cfg.Parser.ConnLimit,
		PerHostLimit: cfg.Parser.PerHostLimit,
		UseProxy:     cfg.Proxy.Enabled,
		FixedProxy:   cfg.Proxy.FixedURL,
	}

	client := transport.NewClient(transportCfg, pool, log, map[string]string{
		"User-Agent": transport.RandomUserAgent(),
	})
	client.Start()

	usersboxCfg := transportCfg
	usersboxCfg.UseProxy = false
	usersboxClient := transport.NewClient(usersboxCfg, pool, log, map[string]string{
		"Authorization": cfg.Usersbox.APIKey,
	})
	usersboxClient.Start()

	return &Transport{Pool: pool, Client: client, Usersbox: usersboxClient}
}

// Close shuts the HTTP clients down.
func (t *Transport) Close() {
	t.Client.Close()
	t.Usersbox.Close()
}

// NewPipeline wires the collection pipeline from transport and storage.
func NewPipeline(
	cfg *config.Config,
	tr *Transport,
	sellers pipeline.SellerStore,
	cache pipeline.ContactCacheStore,
	log logger.Interface,
) (*pipeline.Pipeline, error) {
	docParser, err := rusprofile.NewDocumentParser(cfg.Parser.HTMLParser)
	if err != nil {
		return nil, fmt.Errorf("failed to create document parser: %w", err)
	}

	lookup := rusprofile.NewLookup(tr.Client, docParser, rusprofile.Config{
		SearchConcurrency: cfg.Parser.SearchConcurrency,
		CardConcurrency:   cfg.Parser.CardConcurrency,
		CompanyTimeout:    cfg.Parser.CompanyTimeout,
	}, log)

	contactSrc := pipeline.NewUsersboxContacts(tr.Usersbox, log)

	return pipeline.New(tr.Client, lookup, contactSrc, sellers, cache, cfg.Parser, log), nil
}
