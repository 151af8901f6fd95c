package identity

import "time"

// Preferences are per-user settings.
// TwoFactorSecret is stored but never projected to clients.
type Preferences struct {
	Enable2FA         bool
	EmailNotification bool
	TwoFactorSecret   *string
}

// DefaultPreferences returns the preferences of a freshly registered user.
func DefaultPreferences() Preferences {
	return Preferences{EmailNotification: true}
}

// User is the canonical security principal.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Preferences     Preferences
	IsEmailVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicPreferences is the client-visible subset of Preferences.
type PublicPreferences struct {
	Enable2FA         bool `json:"enable2FA"`
	EmailNotification bool `json:"emailNotification"`
}

// PublicUser is the only user shape that crosses the HTTP boundary.
type PublicUser struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Preferences     PublicPreferences `json:"preferences"`
	IsEmailVerified bool              `json:"isEmailVerified"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Public projects u, dropping the password hash and the 2FA secret.
func Public(u User) PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Preferences: PublicPreferences{
			Enable2FA:         u.Preferences.Enable2FA,
			EmailNotification: u.Preferences.EmailNotification,
		},
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
