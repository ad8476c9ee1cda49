package models

// User represents a registered platform account.
type User struct {
	// ID is the numeric identifier assigned by the store.
	ID int64 `json:"id"`

	// Email is the user's work email address (unique).
	Email string `json:"email"`

	// Role is the global role used for access decisions.
	Role Role `json:"role"`

	// Name is the user's full name.
	Name string `json:"name"`

	// Unit is the organizational unit the user belongs to.
	Unit string `json:"unit,omitempty"`

	// Acclab marks members of the accelerator-lab network.
	Acclab bool `json:"acclab"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"created_at"`
}

// Identity is the already-authenticated caller handed to the core by the
// transport layer. The core trusts it and never re-validates tokens.
type Identity struct {
	UserID int64
	Email  string
	Role   Role
	Unit   string
}

// IsAdmin reports whether the identity bypasses access checks.
func (id Identity) IsAdmin() bool { return id.Role.IsAdmin() }
