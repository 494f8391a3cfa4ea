package proxy

import (
	"encoding/json"
	"os"
	"time"
)

// cacheEntry is the on-disk shape of the cached provider list.
type cacheEntry struct {
	Timestamp int64    `json:"ts"`
	Proxies   []string `json:"proxies"`
}

// loadCache reads the local proxy cache. Returns nil when the file is
// absent, unreadable, or older than ttl.
func loadCache(path string, ttl time.Duration, now time.Time) []string {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry cacheEntry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil
	}

	if now.Unix()-entry.Timestamp >= int64(ttl.Seconds()) {
		return nil
	}
	return entry.Proxies
}

// saveCache writes the proxy list to the local cache. Failures are ignored;
// the cache only exists to spare the provider API.
func saveCache(path string, proxies []string, now time.Time) {
	if path == "" {
		return
	}

	data, err := json.Marshal(cacheEntry{Timestamp: now.Unix(), Proxies: proxies})
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o600)
}
