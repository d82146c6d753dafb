package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/simonkvalheim/hm9-accounts/internal/model"
)

const accountNumberModulus = 10_000_000_000

// NewAccountNumber derives a 10-digit account number from a random UUID.
// The first 14 hex digits of the UUID are reduced modulo 10^10 and zero-padded.
func NewAccountNumber() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8]) >> 8
	return fmt.Sprintf("%0*d", model.AccountNumberLength, n%accountNumberModulus)
}

// IsAccountNumber reports whether s has the shape of an account number
func IsAccountNumber(s string) bool {
	if len(s) != model.AccountNumberLength {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
