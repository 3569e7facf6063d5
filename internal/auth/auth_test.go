package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

type memoryUsers struct {
	byName map[string]*models.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byName: map[string]*models.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := m.byName[u.Username]; ok {
		return &storage.ConflictError{Field: "username"}
	}
	m.nextID++
	u.ID = m.nextID
	m.byName[u.Username] = u
	return nil
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return u, nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	a := NewPasswordAuthenticator(users)

	if _, err := a.Register(ctx, "alice", "alice@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	alice, err := a.Register(ctx, "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if alice.ID == 0 || alice.PasswordHash == "correct horse" || !alice.IsActive {
		t.Errorf("unexpected registered user: %+v", alice)
	}

	if _, err := a.Register(ctx, "alice", "other@example.com", "correct horse"); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		u, err := a.Authenticate(ctx, "alice", "correct horse")
		if err != nil || u.ID != alice.ID {
			t.Errorf("Authenticate() = %v, %v", u, err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "alice", "battery staple"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "bob", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("inactive user", func(t *testing.T) {
		alice.IsActive = false
		defer func() { alice.IsActive = true }()
		if _, err := a.Authenticate(ctx, "alice", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", 5*time.Minute, time.Hour)
	user := &models.User{ID: 42}

	pair, err := m.Pair(user)
	if err != nil {
		t.Fatalf("Pair failed: %v", err)
	}

	claims, err := m.Validate(pair.Access, AccessToken)
	if err != nil {
		t.Fatalf("Validate(access) failed: %v", err)
	}
	if claims.UserID != 42 || claims.ID == "" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := m.Validate(pair.Refresh, RefreshToken); err != nil {
		t.Errorf("Validate(refresh) failed: %v", err)
	}

	t.Run("token types are not interchangeable", func(t *testing.T) {
		if _, err := m.Validate(pair.Access, RefreshToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("access token accepted as refresh: %v", err)
		}
		if _, err := m.Validate(pair.Refresh, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("refresh token accepted as access: %v", err)
		}
	})

	t.Run("each token has its own id", func(t *testing.T) {
		other, err := m.Generate(user, AccessToken)
		if err != nil {
			t.Fatal(err)
		}
		c2, err := m.Validate(other, AccessToken)
		if err != nil {
			t.Fatal(err)
		}
		if c2.ID == claims.ID {
			t.Error("expected distinct jti values")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("another-secret", time.Minute, time.Minute)
		if _, err := other.Validate(pair.Access, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute, time.Hour)
		tok, err := expired.Generate(user, AccessToken)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Validate(tok, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not.a.token", AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}
