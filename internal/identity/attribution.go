package identity

import (
	"net/mail"
	"strings"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
)

// ResolveSponsorUserID returns the authenticated user's id only when their verified email is
// the sponsor email. An organizer buying on a client's behalf gets nil, never their own id.
func ResolveSponsorUserID(auth *domain.AuthContext, sponsorEmail string) *string {
	if !auth.IsAuthenticated() || !auth.EmailVerified {
		return nil
	}
	if !domain.EmailMatches(auth.Email, sponsorEmail) {
		return nil
	}
	id := auth.UserID
	return &id
}

// IsGuestPurchase reports whether a purchase for sponsorEmail ends up unattributed.
func IsGuestPurchase(auth *domain.AuthContext, sponsorEmail string) bool {
	return ResolveSponsorUserID(auth, sponsorEmail) == nil
}

// IsValidEmail is the cheap syntactic check done before any lookup goes out.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domainPart := email[at+1:]
	return strings.Contains(domainPart, ".") && !strings.HasSuffix(domainPart, ".")
}
