package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
	"github.com/mmynk/hostel/internal/storage/sqlite"
)

type fixture struct {
	store    *sqlite.SQLiteStore
	alice    *models.User
	bob      *models.User
	milk     *models.Product
	bread    *models.Product
	purchase *models.Purchase
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store: store,
		alice: models.NewUser("alice", "alice@example.com", "hash"),
		bob:   models.NewUser("bob", "bob@example.com", "hash"),
	}
	for _, u := range []*models.User{f.alice, f.bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	dairy := &models.ProductCategory{Name: "Dairy"}
	bakery := &models.ProductCategory{Name: "Bakery"}
	for _, c := range []*models.ProductCategory{dairy, bakery} {
		if err := store.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
	}
	f.milk = &models.Product{Name: "Milk", CategoryID: dairy.ID}
	f.bread = &models.Product{Name: "Bread", CategoryID: bakery.ID}
	for _, p := range []*models.Product{f.milk, f.bread} {
		if err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}

	f.purchase, err = NewPurchaseService(store).Create(ctx, f.alice, []models.ItemInput{
		{Product: f.milk, Price: 120},
		{Product: f.bread, Price: 80},
	})
	if err != nil {
		t.Fatalf("Create purchase failed: %v", err)
	}
	return f
}

func prices(p *models.Purchase) []int64 {
	var out []int64
	for _, item := range p.Items {
		out = append(out, item.Price)
	}
	return out
}

func TestPurchaseService(t *testing.T) {
	ctx := context.Background()

	t.Run("Create sets the owner and items", func(t *testing.T) {
		f := setup(t)
		if owner, ok := f.purchase.OwnerID(); !ok || owner != f.alice.ID {
			t.Errorf("expected owner %d, got %d", f.alice.ID, owner)
		}
		if got := prices(f.purchase); len(got) != 2 || got[0] != 120 || got[1] != 80 {
			t.Errorf("unexpected items: %v", got)
		}
	})

	t.Run("AddProducts adds duplicates unconditionally", func(t *testing.T) {
		f := setup(t)
		svc := NewPurchaseService(f.store)
		updated, err := svc.AddProducts(ctx, f.purchase.ID, []models.ItemInput{
			{Product: f.milk, Price: 120},
			{Product: f.milk, Price: 0},
		})
		if err != nil {
			t.Fatalf("AddProducts failed: %v", err)
		}
		if got := prices(updated); len(got) != 4 || got[2] != 120 || got[3] != 0 {
			t.Errorf("unexpected items after add: %v", got)
		}
	})

	t.Run("RemoveProducts deletes matches and reports misses", func(t *testing.T) {
		f := setup(t)
		svc := NewPurchaseService(f.store)

		missing, err := svc.RemoveProducts(ctx, f.purchase.ID, []models.ItemInput{
			{Product: f.milk, Price: 999},
			{Product: f.bread, Price: 80},
		})
		if err != nil {
			t.Fatalf("RemoveProducts failed: %v", err)
		}
		if missing.Empty() || len(missing.Messages) != 1 {
			t.Fatalf("expected exactly one error, got %v", missing)
		}
		msg := missing.Messages[0]
		if !strings.Contains(msg, "price 999") || !strings.Contains(msg, "does not exist") {
			t.Errorf("error should name the missing item, got %q", msg)
		}

		after, err := f.store.GetPurchase(ctx, f.purchase.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got := prices(after); len(got) != 1 || got[0] != 120 {
			t.Errorf("expected only milk@120 left, got %v", got)
		}
	})

	t.Run("RemoveProducts deletes one match per input", func(t *testing.T) {
		f := setup(t)
		svc := NewPurchaseService(f.store)
		if _, err := svc.AddProducts(ctx, f.purchase.ID, []models.ItemInput{{Product: f.milk, Price: 120}}); err != nil {
			t.Fatal(err)
		}

		missing, err := svc.RemoveProducts(ctx, f.purchase.ID, []models.ItemInput{{Product: f.milk, Price: 120}})
		if err != nil || !missing.Empty() {
			t.Fatalf("RemoveProducts() = %v, %v", missing, err)
		}
		after, _ := f.store.GetPurchase(ctx, f.purchase.ID)
		if got := prices(after); len(got) != 2 {
			t.Errorf("expected one of two duplicates removed, got %v", got)
		}
	})
}

func TestGroupService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	svc := NewGroupService(f.store)

	group, err := svc.Create(ctx, "Room 412", f.bob)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	alice, _ := f.store.GetUserByID(ctx, f.alice.ID)
	alice.RoommatesGroupID = &group.ID
	if err := f.store.UpdateUser(ctx, alice); err != nil {
		t.Fatal(err)
	}

	if _, err := NewPurchaseService(f.store).Create(ctx, f.bob, []models.ItemInput{{Product: f.bread, Price: 50}}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Purchases(ctx, group)
	if err != nil {
		t.Fatalf("Purchases failed: %v", err)
	}
	if len(report.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(report.Users))
	}
	// alice's purchase was created first
	if report.Users[0].User.ID != f.alice.ID || len(report.Users[0].Items) != 2 {
		t.Errorf("unexpected first entry: %+v", report.Users[0])
	}
	if report.Users[1].User.ID != f.bob.ID || report.Users[1].Items[0].Price != 50 {
		t.Errorf("unexpected second entry: %+v", report.Users[1])
	}
	if c := report.Users[0].Items[0].Product.Category; c == nil || c.Name != "Dairy" {
		t.Errorf("expected category joined, got %+v", c)
	}
}

func TestGroupByUser(t *testing.T) {
	group := &models.RoommatesGroup{ID: 1}
	row := func(user int64, product int64, price int64) storage.GroupPurchaseRow {
		return storage.GroupPurchaseRow{
			User:    models.User{ID: user},
			Product: models.Product{ID: product},
			Price:   price,
		}
	}

	got := GroupByUser(group, []storage.GroupPurchaseRow{
		row(2, 10, 1), row(1, 11, 2), row(2, 12, 3), row(1, 10, 4),
	})
	if len(got.Users) != 2 || got.Users[0].User.ID != 2 || got.Users[1].User.ID != 1 {
		t.Fatalf("users must follow first appearance, got %+v", got.Users)
	}
	if items := got.Users[0].Items; len(items) != 2 || items[0].Price != 1 || items[1].Price != 3 {
		t.Errorf("unexpected items for user 2: %+v", items)
	}
	if *got.Users[1].Items[0].ProductID != 11 {
		t.Errorf("product ids must not alias between rows")
	}

	empty := GroupByUser(group, nil)
	if empty.Users == nil || len(empty.Users) != 0 {
		t.Errorf("expected empty non-nil users, got %#v", empty.Users)
	}
}
