package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Profile is the identity returned by the backend "who am I" endpoint.
type Profile struct {
	ID       int    `json:"id"`                  // Backend user id, 0 for a placeholder
	Username string `json:"username"`            // Login name
	Email    string `json:"email,omitempty"`     // Optional contact address
	FullName string `json:"full_name,omitempty"` // Optional display name
	IsActive bool   `json:"is_active"`           // Account enabled
	IsAdmin  bool   `json:"is_admin"`            // May use the admin screens
}

// Placeholder is the minimal profile published right after a successful login,
// before the real profile has been fetched.
func Placeholder(username string) *Profile {
	return &Profile{
		ID:       0,
		Username: username,
		IsActive: true,
		IsAdmin:  true,
	}
}

// IsPlaceholder reports whether p was synthesized locally.
func (p *Profile) IsPlaceholder() bool {
	return p != nil && p.ID == 0
}

// DisplayName prefers the full name and falls back to the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return p.Username
}

// Account pairs a profile with its password hash. Only the fake backend keeps these.
type Account struct {
	Profile
	PasswordHash string `json:"-"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
