package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const (
	DefaultOTPTTL = 5 * time.Minute

	otpMin = 100000
	otpMax = 999999
)

var (
	ErrOTPNotFound = errors.New("otp not sent")
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPInvalid  = errors.New("invalid otp")
)

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// OTPStore issues and verifies one-time codes keyed by phone number. A code
// is single-use: verification removes it whether it succeeded or expired.
// Reissuing for the same phone replaces the previous code. Delivery of the
// code to the user is the caller's concern.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	ttl     time.Duration

	// now is swapped in tests to exercise expiry.
	now func() time.Time
}

func NewOTPStore(ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPStore{
		entries: make(map[string]otpEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue generates a new 6-digit code for the phone and stores it with the
// configured TTL. The code is returned so the caller can deliver it.
func (s *OTPStore) Issue(phone string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+otpMin)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = otpEntry{
		code:      code,
		expiresAt: s.now().Add(s.ttl),
	}

	return code, nil
}

// Verify checks the code for the phone. A successful or expired verification
// consumes the stored entry; a wrong code leaves it in place so the user can
// retry until expiry.
func (s *OTPStore) Verify(phone string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[phone]
	if !ok {
		return ErrOTPNotFound
	}

	if s.now().After(entry.expiresAt) {
		delete(s.entries, phone)
		return ErrOTPExpired
	}

	if entry.code != code {
		return ErrOTPInvalid
	}

	delete(s.entries, phone)
	return nil
}
