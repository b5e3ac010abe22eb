package pairing

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
)

// maxCodeAttempts bounds the collision retry loop. With a ~900000 code
// keyspace the retry budget is generous for any realistic fleet size; hitting
// it is treated as a hard failure rather than looping forever.
const maxCodeAttempts = 10

// ErrExhaustedRetries is returned when no unique pairing code could be drawn
// within maxCodeAttempts.
var ErrExhaustedRetries = errors.New("failed to generate unique pairing code")

// generatePairingCode draws a uniform random 6-digit decimal code.
func generatePairingCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// uniquePairingCode draws codes until one is unused in the registry.
func (s *Service) uniquePairingCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generatePairingCode()
		_, err := s.store.GetDisplayByPairingCode(code)
		if errors.Is(err, sql.ErrNoRows) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrExhaustedRetries
}
