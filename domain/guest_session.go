package domain

import "time"

// GuestSessionTTL bounds how long a guest buyer can reach their purchases without an account.
const GuestSessionTTL = 24 * time.Hour

type GuestSession struct {
	Email          string    `json:"email"`
	SponsorshipIDs []string  `json:"sponsorshipIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IsValidAt reports whether the session is still usable at now. Expired sessions must be
// treated exactly like a missing one.
func (g *GuestSession) IsValidAt(now time.Time) bool {
	if g == nil {
		return false
	}
	return now.Sub(g.CreatedAt) < GuestSessionTTL
}
