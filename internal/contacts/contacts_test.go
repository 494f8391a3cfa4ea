package contacts_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"sellerscout/internal/contacts"
)

func TestCollectPhones(t *testing.T) {
	t.Parallel()

	payloads := []map[string]any{
		{
			"phone":     "+7 900 111-22-33",
			"alt_phone": "89001112234",
			"landline":  "+7 495 123-45-67",
		},
		{
			"contact": map[string]any{"phone": "+79001112233"},
		},
	}

	phones, _ := contacts.Collect(payloads)

	assert.Equal(t, []string{"+79001112233", "+79001112234"}, phones)
}

func TestCollectEmails(t *testing.T) {
	t.Parallel()

	payloads := []map[string]any{
		{"email": "Shop@Example.COM", "note": "write to support@example.com"},
		{"contact": map[string]any{"email": "shop@example.com"}},
	}

	_, emails := contacts.Collect(payloads)

	assert.Equal(t, []string{"shop@example.com", "support@example.com"}, emails)
}

func TestCollectParsesFormattedCandidates(t *testing.T) {
	t.Parallel()

	payloads := []map[string]any{
		{
			"phone": "8 (900) 111-22-35",
			"inn":   "7701234567",
			"ogrn":  "1027700000001",
		},
	}

	phones, _ := contacts.Collect(payloads)

	assert.Equal(t, []string{"+79001112235"}, phones, "tax IDs must not leak in as numbers")
}

func TestCollectCapsPhonesPerPayload(t *testing.T) {
	t.Parallel()

	payload := map[string]any{}
	for i := 0; i < 12; i++ {
		payload[fmt.Sprintf("phone_%02d", i)] = fmt.Sprintf("+7900111%04d", 2200+i)
	}

	phones, _ := contacts.Collect([]map[string]any{payload})

	assert.Len(t, phones, 10)
}

func TestCollectDropsInvalidNumbers(t *testing.T) {
	t.Parallel()

	payloads := []map[string]any{
		{"phone": "12345", "other": "+7900111"},
	}

	phones, emails := contacts.Collect(payloads)

	assert.Empty(t, phones)
	assert.Empty(t, emails)
}

func TestCollectEmptyInput(t *testing.T) {
	t.Parallel()

	phones, emails := contacts.Collect(nil)

	assert.Nil(t, phones)
	assert.Nil(t, emails)
}
