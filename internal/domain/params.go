package domain

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// Params keys excluded from collection-log normalization. Limit only caps the
// result size and the date bounds shift per run, so neither changes what was
// collected.
var excludedParamKeys = map[string]struct{}{
	"limit":      {},
	"regDate":    {},
	"maxRegDate": {},
}

// Params is a collection-log parameter map. It implements sql.Scanner and
// driver.Valuer so it round-trips through a PostgreSQL JSON column.
type Params map[string]any

// Scan implements the sql.Scanner interface.
func (p *Params) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for Params")
	}

	if len(data) == 0 {
		*p = Params{}
		return nil
	}

	return json.Unmarshal(data, p)
}

// Value implements the driver.Valuer interface.
func (p Params) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Normalize returns a copy without the excluded keys and without nil or
// empty-string values, so semantically identical queries collapse to one
// parameter set.
func (p Params) Normalize() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if _, excluded := excludedParamKeys[k]; excluded {
			continue
		}
		if v == nil || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Hash returns the SHA-256 hex digest of the normalized parameter set,
// serialized as compact JSON with sorted keys. encoding/json already sorts
// map keys, so identical sets hash identically regardless of field order.
func (p Params) Hash() string {
	data, err := json.Marshal(p.Normalize())
	if err != nil {
		// Params only ever holds JSON-encodable values.
		data = []byte("{}")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
