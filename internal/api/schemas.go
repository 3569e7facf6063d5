package api

import (
	"time"

	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/models"
)

// Output schemas. Each call builds a fresh schema since selection mutates it.

const (
	dateTimeLayout = time.RFC3339
	dateLayout     = time.DateOnly
)

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateTimeLayout)
}

func userBaseFields() []*fieldset.Field {
	return []*fieldset.Field{
		fieldset.Attr("email", func(u *models.User) any { return u.Email }),
		fieldset.Attr("first_name", func(u *models.User) any { return u.FirstName }),
		fieldset.Attr("last_name", func(u *models.User) any { return u.LastName }),
		fieldset.Attr("is_superuser", func(u *models.User) any { return u.IsSuperuser }),
		fieldset.Attr("is_staff", func(u *models.User) any { return u.IsStaff }),
		fieldset.Attr("date_joined", func(u *models.User) any { return formatTime(&u.DateJoined) }),
		fieldset.Attr("last_login", func(u *models.User) any { return formatTime(u.LastLogin) }),
	}
}

// userBriefSchema is a user without their group.
func userBriefSchema() *fieldset.Schema {
	fields := []*fieldset.Field{
		fieldset.Attr("id", func(u *models.User) any { return u.ID }),
		fieldset.Attr("username", func(u *models.User) any { return u.Username }),
	}
	return fieldset.New(append(fields, userBaseFields()...)...)
}

func userSchema() *fieldset.Schema {
	fields := []*fieldset.Field{
		fieldset.Attr("id", func(u *models.User) any { return u.ID }),
		fieldset.Attr("username", func(u *models.User) any { return u.Username }),
		fieldset.One("roommates_group", groupBriefSchema(), func(u *models.User) (*models.RoommatesGroup, bool) {
			return u.RoommatesGroup, u.RoommatesGroup != nil
		}),
	}
	return fieldset.New(append(fields, userBaseFields()...)...).
		Nest("roommates_group_fields", "roommates_group")
}

func groupFields() []*fieldset.Field {
	return []*fieldset.Field{
		fieldset.Attr("id", func(g *models.RoommatesGroup) any { return g.ID }),
		fieldset.Attr("name", func(g *models.RoommatesGroup) any { return g.Name }),
		fieldset.Attr("created_at", func(g *models.RoommatesGroup) any { return g.CreatedAt.UTC().Format(dateLayout) }),
	}
}

// groupBriefSchema is a group without its members.
func groupBriefSchema() *fieldset.Schema {
	return fieldset.New(groupFields()...)
}

func groupSchema() *fieldset.Schema {
	users := fieldset.Many("users", userBriefSchema(), func(g *models.RoommatesGroup) []*models.User { return g.Users })
	return fieldset.New(append(groupFields(), users)...).
		Nest("users_fields", "users")
}

func categorySchema() *fieldset.Schema {
	return fieldset.New(
		fieldset.Attr("id", func(c *models.ProductCategory) any { return c.ID }),
		fieldset.Attr("name", func(c *models.ProductCategory) any { return c.Name }),
	)
}

func productSchema() *fieldset.Schema {
	return fieldset.New(
		fieldset.Attr("id", func(p *models.Product) any { return p.ID }),
		fieldset.Attr("name", func(p *models.Product) any { return p.Name }),
		fieldset.One("category", categorySchema(), func(p *models.Product) (*models.ProductCategory, bool) {
			return p.Category, p.Category != nil
		}),
	).Nest("category_fields", "category")
}

// lineItemSchema renders a line item through its product. Once the product
// is deleted only the price remains.
func lineItemSchema() *fieldset.Schema {
	return fieldset.New(
		fieldset.Attr("id", func(li models.LineItem) any {
			if li.Product == nil {
				return nil
			}
			return li.Product.ID
		}),
		fieldset.Attr("name", func(li models.LineItem) any {
			if li.Product == nil {
				return nil
			}
			return li.Product.Name
		}),
		fieldset.Attr("price", func(li models.LineItem) any { return li.Price }),
		fieldset.One("category", categorySchema(), func(li models.LineItem) (*models.ProductCategory, bool) {
			if li.Product == nil || li.Product.Category == nil {
				return nil, false
			}
			return li.Product.Category, true
		}),
	)
}

func purchaseSchema() *fieldset.Schema {
	return fieldset.New(
		fieldset.Attr("id", func(p *models.Purchase) any { return p.ID }),
		fieldset.Attr("datetime", func(p *models.Purchase) any { return formatTime(&p.CreatedAt) }),
		fieldset.One("user", userSchema(), func(p *models.Purchase) (*models.User, bool) {
			return p.User, p.User != nil
		}),
		fieldset.Many("products", lineItemSchema(), func(p *models.Purchase) []models.LineItem { return p.Items }),
	).
		Nest("user_fields", "user").
		Nest("product_fields", "products").
		Nest("product_category_fields", "products", "category")
}

func groupPurchasesSchema() *fieldset.Schema {
	userPurchases := fieldset.New(
		fieldset.One("user", userBriefSchema(), func(up models.UserPurchases) (*models.User, bool) {
			return up.User, up.User != nil
		}),
		fieldset.Many("products", lineItemSchema(), func(up models.UserPurchases) []models.LineItem { return up.Items }),
	)
	return fieldset.New(
		fieldset.One("roommates_group", groupBriefSchema(), func(gp *models.GroupPurchases) (*models.RoommatesGroup, bool) {
			return gp.Group, gp.Group != nil
		}),
		fieldset.Many("users_purchases", userPurchases, func(gp *models.GroupPurchases) []models.UserPurchases { return gp.Users }),
	).
		Nest("roommates_group_fields", "roommates_group").
		Nest("user_fields", "users_purchases", "user").
		Nest("product_fields", "users_purchases", "products").
		Nest("product_category_fields", "users_purchases", "products", "category")
}
