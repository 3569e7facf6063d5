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

const userColumns = `
	u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash,
	u.is_staff, u.is_superuser, u.is_active, u.date_joined, u.last_login,
	u.roommates_group_id, g.name, g.created_at`

const userFrom = `
	FROM users AS u
	LEFT JOIN roommates_groups AS g ON g.id = u.roommates_group_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var (
		dateJoined int64
		lastLogin  sql.NullInt64
		groupID    sql.NullInt64
		groupName  sql.NullString
		groupAt    sql.NullInt64
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.IsActive,
		&dateJoined,
		&lastLogin,
		&groupID,
		&groupName,
		&groupAt,
	)
	if err != nil {
		return nil, err
	}

	user.DateJoined = time.Unix(dateJoined, 0).UTC()
	user.LastLogin = timeFromNull(lastLogin)
	user.RoommatesGroupID = int64FromNull(groupID)
	if groupID.Valid {
		user.RoommatesGroup = &models.RoommatesGroup{
			ID:        groupID.Int64,
			Name:      groupName.String,
			CreatedAt: time.Unix(groupAt.Int64, 0).UTC(),
		}
	}
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash,
			is_staff, is_superuser, is_active, date_joined, last_login, roommates_group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsStaff,
		user.IsSuperuser,
		user.IsActive,
		user.DateJoined.Unix(),
		unixOrNull(user.LastLogin),
		int64OrNull(user.RoommatesGroupID),
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT"+userColumns+userFrom+" WHERE u.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT"+userColumns+userFrom+" WHERE u.username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of users ordered by ID.
func (s *SQLiteStore) ListUsers(ctx context.Context, page storage.Page) ([]*models.User, int, error) {
	total, err := count(ctx, s.db, "SELECT COUNT(*) FROM users")
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT"+userColumns+userFrom+" ORDER BY u.id"+limitClause(page))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

// UpdateUser writes the user's profile, role flags and group membership.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?,
			is_staff = ?, is_superuser = ?, is_active = ?, roommates_group_id = ?
		WHERE id = ?`,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.IsStaff,
		user.IsSuperuser,
		user.IsActive,
		int64OrNull(user.RoommatesGroupID),
		user.ID,
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(res, "users", user.ID)
}

// SetLastLogin records the time of a successful login.
func (s *SQLiteStore) SetLastLogin(ctx context.Context, userID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at.Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to set last login: %w", err)
	}
	return expectOneRow(res, "users", userID)
}

// DeleteUser removes a user; purchases.user_id is set to NULL by the schema.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", id)
}
