package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

func TestParseCredentialID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", true},
		{"missing urn prefix", uuid.NewString(), true},
		{"wrong urn namespace", "urn:isbn:0451450523", true},
		{"garbage after prefix", "urn:uuid:not-a-uuid", true},
		{"SQL injection attempt", "'; DROP TABLE credentials;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"oversized input", "urn:uuid:" + strings.Repeat("a", 1000), true},
		{"valid", "urn:uuid:550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseCredentialID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestNewCredentialID_UniqueAndWellFormed(t *testing.T) {
	seen := make(map[CredentialID]struct{})
	for range 100 {
		id := NewCredentialID()

		_, dup := seen[id]
		require.False(t, dup, "credential IDs must never repeat")
		seen[id] = struct{}{}

		parsed, err := ParseCredentialID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	providerID := ProviderID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ UserID = providerID   // compile error
	// var _ ProviderID = userID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(providerID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.True(t, CredentialID("").IsNil())
	assert.False(t, UserID(uuid.New()).IsNil())
	assert.False(t, NewCredentialID().IsNil())
}
