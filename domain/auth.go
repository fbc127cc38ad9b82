package domain

import "strings"

// AuthContext is the authenticated buyer, passed explicitly instead of read from ambient state.
type AuthContext struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

func (a *AuthContext) IsAuthenticated() bool {
	return a != nil && a.UserID != ""
}

// EmailMatches compares addresses case-insensitively, ignoring surrounding whitespace.
func EmailMatches(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
