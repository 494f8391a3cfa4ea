package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sellerscout/internal/domain"
)

func TestParamsHashOrderIndependent(t *testing.T) {
	t.Parallel()

	a := domain.Params{"a": 1, "b": 2}
	b := domain.Params{"b": 2, "a": 1}

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestParamsHashIgnoresExcludedKeys(t *testing.T) {
	t.Parallel()

	a := domain.Params{"a": 1, "limit": 5}
	b := domain.Params{"a": 1}
	c := domain.Params{"a": 1, "regDate": "2024-01-01", "maxRegDate": "2024-06-01"}

	assert.Equal(t, b.Hash(), a.Hash())
	assert.Equal(t, b.Hash(), c.Hash())
}

func TestParamsHashDropsEmptyValues(t *testing.T) {
	t.Parallel()

	a := domain.Params{"a": 1, "shard": "", "cat": nil}
	b := domain.Params{"a": 1}

	assert.Equal(t, b.Hash(), a.Hash())
}

func TestParamsNormalize(t *testing.T) {
	t.Parallel()

	p := domain.Params{"cat": "x", "limit": 10, "empty": "", "nil": nil, "pages": 2}
	got := p.Normalize()

	assert.Equal(t, domain.Params{"cat": "x", "pages": 2}, got)
}

func TestRegionCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ogrn   string
		ogrnip string
		inn    string
		want   []string
	}{
		{name: "ogrn first", ogrn: "1027700000001", ogrnip: "312500000000015", inn: "5001112223", want: []string{"77", "50", "50"}},
		{name: "ogrnip when no ogrn", ogrnip: "312500000000015", inn: "7701234567", want: []string{"50", "77"}},
		{name: "inn prefix alone", inn: "7701234567", want: []string{"77"}},
		{name: "non-matching ogrn still yields inn code", ogrn: "1025000000002", inn: "7701234567", want: []string{"50", "77"}},
		{name: "nothing long enough", ogrn: "10", inn: "7", want: nil},
		{name: "all empty", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, domain.RegionCodes(tt.ogrn, tt.ogrnip, tt.inn))
		})
	}
}

func TestSellerURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.wildberries.ru/seller/42", domain.SellerURL(42))

	s := domain.SellerStats{SellerID: 42}
	assert.Equal(t, domain.SellerURL(42), s.StoreURL())
}

func TestSellerRecordHasContacts(t *testing.T) {
	t.Parallel()

	var rec domain.SellerRecord
	assert.False(t, rec.HasContacts())

	rec.Emails = []string{"shop@example.com"}
	assert.True(t, rec.HasContacts())

	rec = domain.SellerRecord{Phones: []string{"+79001112233"}}
	assert.True(t, rec.HasContacts())
}

func TestJobStateTerminal(t *testing.T) {
	t.Parallel()

	for status, terminal := range map[string]bool{
		domain.JobStatusPending:    false,
		domain.JobStatusInProgress: false,
		domain.JobStatusFinished:   true,
		domain.JobStatusFailed:     true,
	} {
		state := domain.JobState{Status: status}
		assert.Equal(t, terminal, state.Terminal(), status)
	}
}
