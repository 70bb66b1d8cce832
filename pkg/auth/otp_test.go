package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPStore_IssueAndVerify(t *testing.T) {
	store := NewOTPStore(DefaultOTPTTL)

	code, err := store.Issue("+919800000001")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	assert.NoError(t, store.Verify("+919800000001", code))

	// The code is single-use.
	assert.ErrorIs(t, store.Verify("+919800000001", code), ErrOTPNotFound)
}

func TestOTPStore_WrongCode(t *testing.T) {
	store := NewOTPStore(DefaultOTPTTL)

	code, err := store.Issue("+919800000001")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Verify("+919800000001", "000000"), ErrOTPInvalid)

	// A wrong attempt does not consume the code.
	assert.NoError(t, store.Verify("+919800000001", code))
}

func TestOTPStore_UnknownPhone(t *testing.T) {
	store := NewOTPStore(DefaultOTPTTL)
	assert.ErrorIs(t, store.Verify("+919800000002", "123456"), ErrOTPNotFound)
}

func TestOTPStore_Expiry(t *testing.T) {
	store := NewOTPStore(time.Minute)

	current := time.Now()
	store.now = func() time.Time { return current }

	code, err := store.Issue("+919800000001")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	assert.ErrorIs(t, store.Verify("+919800000001", code), ErrOTPExpired)

	// Expiry consumes the entry.
	assert.ErrorIs(t, store.Verify("+919800000001", code), ErrOTPNotFound)
}

func TestOTPStore_ReissueReplacesCode(t *testing.T) {
	store := NewOTPStore(DefaultOTPTTL)

	first, err := store.Issue("+919800000001")
	require.NoError(t, err)
	second, err := store.Issue("+919800000001")
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, store.Verify("+919800000001", first), ErrOTPInvalid)
	}
	assert.NoError(t, store.Verify("+919800000001", second))
}
