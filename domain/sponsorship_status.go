package domain

type SponsorshipStatus string

const (
	SponsorshipStatusPending           SponsorshipStatus = "pending"
	SponsorshipStatusPaid              SponsorshipStatus = "paid"
	SponsorshipStatusBrandingSubmitted SponsorshipStatus = "branding-submitted"
)

var statusRank = map[SponsorshipStatus]int{
	SponsorshipStatusPending:           0,
	SponsorshipStatusPaid:              1,
	SponsorshipStatusBrandingSubmitted: 2,
}

func (s SponsorshipStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s SponsorshipStatus) IsTerminal() bool {
	return s == SponsorshipStatusBrandingSubmitted
}

// CanTransitionTo reports whether a draft in status from may move to status to.
// Status only moves forward; moving to the current status is allowed and is a no-op.
func CanTransitionTo(from, to SponsorshipStatus) bool {
	f, okFrom := statusRank[from]
	t, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return t >= f
}

// HasReached reports whether s is at or past target in the status order.
func (s SponsorshipStatus) HasReached(target SponsorshipStatus) bool {
	cur, okCur := statusRank[s]
	t, okT := statusRank[target]
	return okCur && okT && cur >= t
}

// String representation (for logging)
func (s SponsorshipStatus) String() string {
	return string(s)
}
