package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/models"
)

// CreateUser inserts a new user and populates its ID.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if user.Role == "" {
		user.Role = models.RoleVisitor
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, role, name, unit, acclab, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		user.Email, string(user.Role), user.Name, user.Unit, user.Acclab, user.CreatedAt,
	).Scan(&user.ID)
	return wrap("create user", err)
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, name, unit, acclab, created_at
		FROM users WHERE `+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.Role, &user.Name, &user.Unit, &user.Acclab, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("user %v", arg)
	}
	if err != nil {
		return nil, wrap("get user", err)
	}
	return user, nil
}

// GetUsersByIDs retrieves multiple users keyed by ID. Unknown ids are
// omitted from the result.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, role, name, unit, acclab, created_at
		FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...,
	)
	if err != nil {
		return nil, wrap("get users by ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Role, &user.Name, &user.Unit, &user.Acclab, &user.CreatedAt); err != nil {
			return nil, wrap("scan user", err)
		}
		users[user.ID] = user
	}
	return users, wrap("iterate users", rows.Err())
}
