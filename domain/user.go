package domain

import (
	"context"
	"strings"
	"unicode"
)

// Roles a user can hold. Administrators manage the catalog; buyers only sell.
const (
	RoleAdmin = "admin"
	RoleBuyer = "comprador"
)

// User is a system account. Passwords are stored and compared in plaintext;
// this tool targets a single trusted terminal, not a hostile network.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// ValidateUsername enforces the registration rules: no spaces, letters,
// digits and hyphens only, and not hyphens alone.
func ValidateUsername(username string) error {
	if username == "" {
		return NewInvalidUsernameError(username, "cannot be empty")
	}
	if strings.ContainsRune(username, ' ') {
		return NewInvalidUsernameError(username, "cannot contain spaces")
	}
	stripped := strings.ReplaceAll(username, "-", "")
	if stripped == "" {
		return NewInvalidUsernameError(username, "cannot be hyphens only")
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return NewInvalidUsernameError(username, "only letters, digits and hyphens are allowed")
		}
	}
	return nil
}

// Users is the credential store consumed by session establishment.
type Users interface {
	Register(ctx context.Context, username, password, role string) error
	// Authenticate returns the user on a plaintext password match and
	// InvalidCredentialsError otherwise.
	Authenticate(ctx context.Context, username, password string) (User, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
	All(ctx context.Context) ([]User, error)
}
