// Package users resolves approval participants by ID or role.
package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidUser = errors.New("invalid user")

type Directory struct {
	repo     persistence.UserRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewDirectory(repo persistence.UserRepository) *Directory {
	return &Directory{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// FindByID returns persistence.ErrUserNotFound when no user has the id.
func (d *Directory) FindByID(ctx context.Context, id string) (*models.User, error) {
	return d.repo.UserByID(ctx, id)
}

// FindByRoles returns every user holding one of roles. Duplicated roles are
// looked up once and an empty list yields no users.
func (d *Directory) FindByRoles(ctx context.Context, roles []models.Role) ([]*models.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	unique := slices.Clone(roles)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	return d.repo.UsersByRoles(ctx, unique)
}

func (d *Directory) List(ctx context.Context) ([]*models.User, error) {
	return d.repo.Users(ctx)
}

// Register validates and stores a new user.
func (d *Directory) Register(ctx context.Context, username string, role models.Role) (*models.User, error) {
	id, err := persistence.NewID()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        id,
		Username:  username,
		Role:      role,
		CreatedAt: d.now().UTC(),
	}

	err = d.validate.Struct(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUser, err)
	}

	err = d.repo.SaveUser(ctx, user)
	if err != nil {
		return nil, err
	}

	return user, nil
}
