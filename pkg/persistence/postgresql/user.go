package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/lib/pq"
)

const usernameConstraint = "users_username_key"

type UserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewUserRepository(db *sql.DB, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		user.ID = id
	}

	query := `
		INSERT INTO users (id, username, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			role = EXCLUDED.role
	`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, usernameConstraint) {
			return persistence.NewItemError("SaveUser", "user", user.Username, persistence.ErrUsernameTaken)
		}

		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (r *UserRepository) UserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, username, role, created_at FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewItemError("UserByID", "user", id, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Users(ctx context.Context) ([]*models.User, error) {
	return r.queryUsers(ctx, `SELECT id, username, role, created_at FROM users ORDER BY username`)
}

func (r *UserRepository) UsersByRoles(ctx context.Context, roles []models.Role) ([]*models.User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `
		SELECT id, username, role, created_at
		FROM users
		WHERE role = ANY($1)
		ORDER BY username
	`

	return r.queryUsers(ctx, query, pq.Array(names))
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User

	err := row.Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	user.CreatedAt = user.CreatedAt.UTC()

	return &user, nil
}
