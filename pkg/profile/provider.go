package profile

import "context"

// Profile is the contact profile of a conversational end user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Result is the outcome of a profile lookup. A denied lookup is a normal
// branch, not an error: the user simply has not granted access yet.
type Result struct {
	Profile          *Profile
	PermissionDenied bool
}

// Provider resolves a user identity to their contact profile.
type Provider interface {
	Lookup(ctx context.Context, userID string) (Result, error)
}
