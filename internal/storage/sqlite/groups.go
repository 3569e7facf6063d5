package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

// CreateGroup persists a new group and joins the creator to it atomically.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.RoommatesGroup, creatorID int64) error {
	if group.CreatedAt.IsZero() {
		group.CreatedAt = today()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO roommates_groups (name, created_at) VALUES (?, ?)",
		group.Name, group.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	group.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read group id: %w", err)
	}

	if creatorID != 0 {
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET roommates_group_id = ? WHERE id = ?",
			group.ID, creatorID,
		)
		if err != nil {
			return fmt.Errorf("failed to add creator to group: %w", err)
		}
		if err := expectOneRow(res, "users", creatorID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	members, err := s.groupMembers(ctx, []int64{group.ID})
	if err != nil {
		return err
	}
	group.Users = members[group.ID]
	return nil
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, id int64) (*models.RoommatesGroup, error) {
	group := &models.RoommatesGroup{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM roommates_groups WHERE id = ?", id,
	).Scan(&group.ID, &group.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.CreatedAt = time.Unix(createdAt, 0).UTC()

	members, err := s.groupMembers(ctx, []int64{group.ID})
	if err != nil {
		return nil, err
	}
	group.Users = members[group.ID]
	return group, nil
}

// ListGroups returns a page of groups ordered by ID, each with its members.
func (s *SQLiteStore) ListGroups(ctx context.Context, page storage.Page) ([]*models.RoommatesGroup, int, error) {
	total, err := count(ctx, s.db, "SELECT COUNT(*) FROM roommates_groups")
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM roommates_groups ORDER BY id"+limitClause(page),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var (
		groups []*models.RoommatesGroup
		ids    []int64
	)
	for rows.Next() {
		group := &models.RoommatesGroup{}
		var createdAt int64
		if err := rows.Scan(&group.ID, &group.Name, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		group.CreatedAt = time.Unix(createdAt, 0).UTC()
		groups = append(groups, group)
		ids = append(ids, group.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	members, err := s.groupMembers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, group := range groups {
		group.Users = members[group.ID]
	}
	return groups, total, nil
}

// groupMembers loads the members of the given groups, keyed by group ID.
func (s *SQLiteStore) groupMembers(ctx context.Context, groupIDs []int64) (map[int64][]*models.User, error) {
	members := make(map[int64][]*models.User, len(groupIDs))
	if len(groupIDs) == 0 {
		return members, nil
	}

	args := make([]any, len(groupIDs))
	for i, id := range groupIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+userColumns+userFrom+" WHERE u.roommates_group_id IN ("+placeholders(len(groupIDs))+") ORDER BY u.id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		gid := *user.RoommatesGroupID
		members[gid] = append(members[gid], user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// UpdateGroup renames a group.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.RoommatesGroup) error {
	res, err := s.db.ExecContext(ctx, "UPDATE roommates_groups SET name = ? WHERE id = ?", group.Name, group.ID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return expectOneRow(res, "roommates_groups", group.ID)
}

// DeleteGroup removes a group; members' roommates_group_id is set to NULL by the schema.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "roommates_groups", id)
}

// GroupPurchases joins group → members → purchases → line items → products → categories.
// Line items whose product was deleted and purchases without an owner drop out of the
// inner joins.
func (s *SQLiteStore) GroupPurchases(ctx context.Context, groupID int64) ([]storage.GroupPurchaseRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.is_superuser, u.is_staff,
			u.date_joined, u.last_login,
			product.id, product.name, category.id, category.name,
			product_purchase.price
		FROM users AS u
			JOIN purchases AS purchase
				ON u.id = purchase.user_id
			JOIN product_purchases AS product_purchase
				ON purchase.id = product_purchase.purchase_id
			JOIN products AS product
				ON product_purchase.product_id = product.id
			JOIN product_categories AS category
				ON product.category_id = category.id
			JOIN roommates_groups AS roommates_group
				ON roommates_group.id = u.roommates_group_id
		WHERE roommates_group.id = ?
		ORDER BY purchase.id, product_purchase.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query group purchases: %w", err)
	}
	defer rows.Close()

	var result []storage.GroupPurchaseRow
	for rows.Next() {
		var (
			row        storage.GroupPurchaseRow
			category   models.ProductCategory
			dateJoined int64
			lastLogin  sql.NullInt64
		)
		if err := rows.Scan(
			&row.User.ID, &row.User.Username, &row.User.Email, &row.User.FirstName, &row.User.LastName,
			&row.User.IsSuperuser, &row.User.IsStaff, &dateJoined, &lastLogin,
			&row.Product.ID, &row.Product.Name, &category.ID, &category.Name,
			&row.Price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan group purchase: %w", err)
		}
		row.User.DateJoined = time.Unix(dateJoined, 0).UTC()
		row.User.LastLogin = timeFromNull(lastLogin)
		row.Product.CategoryID = category.ID
		row.Product.Category = &category
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group purchases: %w", err)
	}
	return result, nil
}

// today returns the current UTC date at midnight; groups record a creation date, not a time.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
