package pipeline

import (
	"context"

	"sellerscout/internal/contacts"
	"sellerscout/internal/logger"
	"sellerscout/internal/usersbox"
)

// UsersboxContacts resolves contacts through the usersbox search API.
// A failed or empty lookup yields empty sets, never an error.
type UsersboxContacts struct {
	client usersbox.JSONFetcher
	log    logger.Interface
}

// NewUsersboxContacts creates the usersbox-backed contact source.
func NewUsersboxContacts(client usersbox.JSONFetcher, log logger.Interface) *UsersboxContacts {
	return &UsersboxContacts{client: client, log: log}
}

// Lookup fetches the search payloads for the INN and extracts phones and
// emails from them.
func (u *UsersboxContacts) Lookup(ctx context.Context, inn string) (phones, emails []string) {
	if inn == "" {
		return nil, nil
	}

	fetcher := usersbox.NewFetcher([]string{inn}, u.client, 1)
	records := usersbox.Parser{}.Parse(fetcher.Fetch(ctx))
	if len(records) == 0 {
		u.log.Debug("no contact records found", "inn", inn)
		return nil, nil
	}

	payloads := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, rec.Payload)
	}
	return contacts.Collect(payloads)
}
