package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/hostel/internal/storage/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCreateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	out, err := run(t, "create-user", "warden", "--email", "warden@example.com", "--password", "password123", "--superuser")
	if err != nil {
		t.Fatalf("create-user failed: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("expected the new id on stdout, got %q", out)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	user, err := store.GetUserByUsername(context.Background(), "warden")
	if err != nil {
		t.Fatal(err)
	}
	if !user.IsStaff || !user.IsSuperuser {
		t.Errorf("--superuser must grant both flags, got staff=%v superuser=%v", user.IsStaff, user.IsSuperuser)
	}

	t.Run("duplicate username", func(t *testing.T) {
		if _, err := run(t, "create-user", "warden", "--email", "other@example.com", "--password", "password123"); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("weak password", func(t *testing.T) {
		if _, err := run(t, "create-user", "guest", "--email", "guest@example.com", "--password", "short"); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("missing flags", func(t *testing.T) {
		if _, err := run(t, "create-user", "guest"); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestServeRequiresSecret(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOG_LEVEL", "error")

	if _, err := run(t, "serve", "--addr", "127.0.0.1:0"); err == nil {
		t.Error("serve must refuse to start without JWT_SECRET")
	}
}
