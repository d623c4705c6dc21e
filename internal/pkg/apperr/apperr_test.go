package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected int
	}{
		{"Validation", Validation("bad"), 400},
		{"NotFound", NotFound("missing"), 404},
		{"Render", Render(errors.New("boom")), 500},
		{"Persistence", Persistence(errors.New("boom")), 500},
		{"Notification", Notification(errors.New("boom")), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.HTTPStatus())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("record payment: %w", Persistence(cause))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindPersistence, e.Kind)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, Is(wrapped, KindPersistence))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(cause, KindPersistence))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found: Certificado no encontrado", NotFound("Certificado no encontrado").Error())
	assert.Contains(t, Render(errors.New("decode")).Error(), "decode")
}
