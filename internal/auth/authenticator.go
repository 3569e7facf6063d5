package auth

import (
	"context"

	"github.com/mmynk/hostel/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the API layer code.
type Authenticator interface {
	// Register creates a new active account. Accounts are created by operators
	// (see the create-user command), not through the API.
	Register(ctx context.Context, username, email, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Inactive accounts never authenticate.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
