package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustUser(t *testing.T, store *SQLiteStore, username string) *models.User {
	t.Helper()
	user := models.NewUser(username, username+"@example.com", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return user
}

func mustProduct(t *testing.T, store *SQLiteStore, name, category string) *models.Product {
	t.Helper()
	ctx := context.Background()
	c := &models.ProductCategory{Name: category}
	if err := store.CreateCategory(ctx, c); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	p := &models.Product{Name: name, CategoryID: c.ID}
	if err := store.CreateProduct(ctx, p); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	return p
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser assigns ID and rejects duplicates", func(t *testing.T) {
		user := mustUser(t, store, "alice")
		if user.ID == 0 {
			t.Fatal("Expected user ID to be assigned")
		}

		dup := models.NewUser("alice", "other@example.com", "hash")
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("Expected ErrConflict, got %v", err)
		}
		var conflict *storage.ConflictError
		if !errors.As(err, &conflict) || conflict.Field != "username" {
			t.Errorf("Expected conflict on username, got %v", err)
		}
	})

	t.Run("GetUserByID returns ErrNotFound for missing user", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateGroup makes the creator a member", func(t *testing.T) {
		creator := mustUser(t, store, "bob")
		group := &models.RoommatesGroup{Name: "Room 412"}
		if err := store.CreateGroup(ctx, group, creator.ID); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be set")
		}
		if len(group.Users) != 1 || group.Users[0].ID != creator.ID {
			t.Fatalf("Expected creator as the only member, got %+v", group.Users)
		}

		reloaded, err := store.GetUserByID(ctx, creator.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if reloaded.RoommatesGroup == nil || reloaded.RoommatesGroup.Name != "Room 412" {
			t.Errorf("Expected joined group, got %+v", reloaded.RoommatesGroup)
		}
	})

	t.Run("DeleteGroup detaches members", func(t *testing.T) {
		member := mustUser(t, store, "carol")
		group := &models.RoommatesGroup{Name: "Kitchen"}
		if err := store.CreateGroup(ctx, group, member.ID); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		reloaded, err := store.GetUserByID(ctx, member.ID)
		if err != nil {
			t.Fatalf("Expected member to survive group deletion: %v", err)
		}
		if reloaded.RoommatesGroupID != nil {
			t.Errorf("Expected nil group, got %d", *reloaded.RoommatesGroupID)
		}
	})

	t.Run("DeleteCategory cascades to products", func(t *testing.T) {
		product := mustProduct(t, store, "Soap", "Household")
		if err := store.DeleteCategory(ctx, product.CategoryID); err != nil {
			t.Fatalf("DeleteCategory failed: %v", err)
		}
		if _, err := store.GetProduct(ctx, product.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected product to be deleted, got %v", err)
		}
	})

	t.Run("CreatePurchase and GetPurchase round trip", func(t *testing.T) {
		owner := mustUser(t, store, "dave")
		milk := mustProduct(t, store, "Milk", "Dairy")
		purchase := &models.Purchase{UserID: &owner.ID}
		items := []models.ItemInput{{Product: milk, Price: 80}, {Product: milk, Price: 0}}
		if err := store.CreatePurchase(ctx, purchase, items); err != nil {
			t.Fatalf("CreatePurchase failed: %v", err)
		}

		got, err := store.GetPurchase(ctx, purchase.ID)
		if err != nil {
			t.Fatalf("GetPurchase failed: %v", err)
		}
		if got.User == nil || got.User.Username != "dave" {
			t.Errorf("Expected owner dave, got %+v", got.User)
		}
		if len(got.Items) != 2 {
			t.Fatalf("Items count mismatch: got %d, want 2", len(got.Items))
		}
		if got.Items[0].Product.Category.Name != "Dairy" {
			t.Errorf("Expected category Dairy, got %q", got.Items[0].Product.Category.Name)
		}
		if got.Items[1].Price != 0 {
			t.Errorf("Expected zero price to be kept, got %d", got.Items[1].Price)
		}
	})

	t.Run("Deleting a product keeps its line items", func(t *testing.T) {
		owner := mustUser(t, store, "erin")
		bread := mustProduct(t, store, "Bread", "Bakery")
		purchase := &models.Purchase{UserID: &owner.ID}
		if err := store.CreatePurchase(ctx, purchase, []models.ItemInput{{Product: bread, Price: 40}}); err != nil {
			t.Fatalf("CreatePurchase failed: %v", err)
		}
		if err := store.DeleteProduct(ctx, bread.ID); err != nil {
			t.Fatalf("DeleteProduct failed: %v", err)
		}

		got, err := store.GetPurchase(ctx, purchase.ID)
		if err != nil {
			t.Fatalf("GetPurchase failed: %v", err)
		}
		if len(got.Items) != 1 || got.Items[0].Product != nil || got.Items[0].Price != 40 {
			t.Errorf("Expected orphaned line item with price 40, got %+v", got.Items)
		}
	})

	t.Run("Deleting a user orphans their purchases", func(t *testing.T) {
		owner := mustUser(t, store, "frank")
		purchase := &models.Purchase{UserID: &owner.ID}
		if err := store.CreatePurchase(ctx, purchase, nil); err != nil {
			t.Fatalf("CreatePurchase failed: %v", err)
		}
		if err := store.DeleteUser(ctx, owner.ID); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		got, err := store.GetPurchase(ctx, purchase.ID)
		if err != nil {
			t.Fatalf("GetPurchase failed: %v", err)
		}
		if got.UserID != nil || got.User != nil {
			t.Errorf("Expected orphaned purchase, got owner %v", got.UserID)
		}
	})
}

func TestLineItemTx(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := mustUser(t, store, "alice")
	milk := mustProduct(t, store, "Milk", "Dairy")
	purchase := &models.Purchase{UserID: &owner.ID}
	if err := store.CreatePurchase(ctx, purchase, []models.ItemInput{
		{Product: milk, Price: 80},
		{Product: milk, Price: 80},
	}); err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	t.Run("DeleteLineItem removes only the first match", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx storage.LineItemTx) error {
			deleted, err := tx.DeleteLineItem(ctx, purchase.ID, milk.ID, 80)
			if err != nil {
				return err
			}
			if !deleted {
				t.Error("Expected a line item to be deleted")
			}
			deleted, err = tx.DeleteLineItem(ctx, purchase.ID, milk.ID, 81)
			if err != nil {
				return err
			}
			if deleted {
				t.Error("Expected no line item with price 81")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx failed: %v", err)
		}

		got, _ := store.GetPurchase(ctx, purchase.ID)
		if len(got.Items) != 1 {
			t.Errorf("Expected 1 remaining item, got %d", len(got.Items))
		}
	})

	t.Run("WithinTx rolls back when fn fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(tx storage.LineItemTx) error {
			if err := tx.AddLineItem(ctx, purchase.ID, milk.ID, 10); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}

		got, _ := store.GetPurchase(ctx, purchase.ID)
		if len(got.Items) != 1 {
			t.Errorf("Expected rollback to keep 1 item, got %d", len(got.Items))
		}
	})
}

func TestGroupPurchases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	outsider := mustUser(t, store, "mallory")

	group := &models.RoommatesGroup{Name: "Flat 7"}
	if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	bob.RoommatesGroupID = &group.ID
	if err := store.UpdateUser(ctx, bob); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	milk := mustProduct(t, store, "Milk", "Dairy")
	gone := mustProduct(t, store, "Gone", "Misc")
	for _, p := range []struct {
		owner *models.User
		items []models.ItemInput
	}{
		{alice, []models.ItemInput{{Product: milk, Price: 80}, {Product: gone, Price: 5}}},
		{bob, []models.ItemInput{{Product: milk, Price: 75}}},
		{outsider, []models.ItemInput{{Product: milk, Price: 1}}},
	} {
		if err := store.CreatePurchase(ctx, &models.Purchase{UserID: &p.owner.ID}, p.items); err != nil {
			t.Fatalf("CreatePurchase failed: %v", err)
		}
	}
	if err := store.DeleteProduct(ctx, gone.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}

	rows, err := store.GroupPurchases(ctx, group.ID)
	if err != nil {
		t.Fatalf("GroupPurchases failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows (deleted product and outsider excluded), got %d", len(rows))
	}
	if rows[0].User.ID != alice.ID || rows[0].Price != 80 {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[1].User.ID != bob.ID || rows[1].Product.Category.Name != "Dairy" {
		t.Errorf("Unexpected second row: %+v", rows[1])
	}

	t.Run("ListPurchases filters by group", func(t *testing.T) {
		purchases, total, err := store.ListPurchases(ctx, storage.PurchaseFilter{GroupID: &group.ID}, storage.Page{})
		if err != nil {
			t.Fatalf("ListPurchases failed: %v", err)
		}
		if total != 2 || len(purchases) != 2 {
			t.Errorf("Expected 2 group purchases, got total=%d len=%d", total, len(purchases))
		}
	})

	t.Run("ListPurchases pages", func(t *testing.T) {
		purchases, total, err := store.ListPurchases(ctx, storage.PurchaseFilter{}, storage.Page{Offset: 1, Limit: 1})
		if err != nil {
			t.Fatalf("ListPurchases failed: %v", err)
		}
		if total != 3 || len(purchases) != 1 {
			t.Errorf("Expected 1 of 3 purchases, got total=%d len=%d", total, len(purchases))
		}
	})
}
