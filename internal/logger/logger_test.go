package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestToZapFieldsPairs(t *testing.T) {
	t.Parallel()

	fields := toZapFields([]any{"seller_id", 42, "url", "https://example.com"})

	require.Len(t, fields, 2)
	assert.Equal(t, zap.Any("seller_id", 42), fields[0])
	assert.Equal(t, zap.Any("url", "https://example.com"), fields[1])
}

func TestToZapFieldsMissingValue(t *testing.T) {
	t.Parallel()

	fields := toZapFields([]any{"dangling"})

	require.Len(t, fields, 2)
	assert.Equal(t, "missing_value_for", fields[0].Key)
	err, ok := fields[1].Interface.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrInvalidFields)
}

func TestToZapFieldsNonStringKey(t *testing.T) {
	t.Parallel()

	fields := toZapFields([]any{42})

	require.Len(t, fields, 1)
	assert.Equal(t, "invalid_field", fields[0].Key)
	err, ok := fields[0].Interface.(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrInvalidFields)
}

func TestToZapFieldsPassesZapFieldsThrough(t *testing.T) {
	t.Parallel()

	field := zap.String("component", "pipeline")
	fields := toZapFields([]any{field})

	require.Len(t, fields, 1)
	assert.Equal(t, field, fields[0])
}
