// Package contacts extracts reachable phone numbers and e-mail addresses
// from contact-lookup payloads.
package contacts

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const maxPhonesPerPayload = 10

var (
	candidateRe = regexp.MustCompile(`\+?[78][\s\-().]*\d(?:[\s\-().]*\d){8,9}`)
	mobileRe    = regexp.MustCompile(`^\+79\d{9}$`)
	emailRe     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// Collect scans payloads for Russian mobile numbers and e-mail addresses.
// Both result sets are deduplicated and sorted.
func Collect(payloads []map[string]any) (phones, emails []string) {
	phoneSet := map[string]struct{}{}
	emailSet := map[string]struct{}{}

	for _, payload := range payloads {
		raw, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		text := string(raw)

		for _, phone := range extractPhones(text) {
			phoneSet[phone] = struct{}{}
		}
		for _, email := range emailRe.FindAllString(text, -1) {
			emailSet[strings.ToLower(email)] = struct{}{}
		}
	}

	return sortedKeys(phoneSet), sortedKeys(emailSet)
}

// extractPhones scans the serialized payload for phone-shaped candidates,
// parses them with libphonenumber and keeps valid Russian mobile numbers in
// E.164 form. Landlines and service numbers are dropped. A single payload
// contributes at most maxPhonesPerPayload numbers to guard against junk
// dumps.
func extractPhones(text string) []string {
	var out []string
	for _, candidate := range candidateRe.FindAllString(text, -1) {
		num, err := phonenumbers.Parse(candidate, "RU")
		if err != nil {
			continue
		}
		if !phonenumbers.IsValidNumber(num) || !phonenumbers.IsPossibleNumber(num) {
			continue
		}
		formatted := phonenumbers.Format(num, phonenumbers.E164)
		if !mobileRe.MatchString(formatted) {
			continue
		}
		out = append(out, formatted)
		if len(out) >= maxPhonesPerPayload {
			break
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
