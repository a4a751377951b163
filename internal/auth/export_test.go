package auth

import "time"

// SetNow overrides the manager's clock so tests can fast-forward past expiry
// without sleeping.
func SetNow(t *TokenManager, now func() time.Time) {
	t.now = now
}
