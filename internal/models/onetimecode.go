package models

import "time"

// OneTimeCode is a short-lived numeric login code for an account.
// At most one unconsumed, unexpired code exists per account: issuing a
// new code marks any prior unconsumed code consumed.
type OneTimeCode struct {
	ID        int64
	AccountID int64
	Code      string
	Attempts  int
	Consumed  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired checks if the code has passed its expiry
func (c *OneTimeCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
