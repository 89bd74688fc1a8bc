package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
)

// ItemRepository stores the todos and invoices that approved changes act on.
type ItemRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewItemRepository(db *sql.DB, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{db: db, logger: logger}
}

func (r *ItemRepository) SaveTodo(ctx context.Context, todo *models.Todo) error {
	if todo.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		todo.ID = id
	}

	query := `
		INSERT INTO todos (id, title, description, level, completed, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			level = EXCLUDED.level,
			completed = EXCLUDED.completed,
			user_id = EXCLUDED.user_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		todo.ID, todo.Title, todo.Description, todo.Level, todo.Completed,
		nullString(todo.UserID), todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save todo: %w", err)
	}

	return nil
}

func (r *ItemRepository) TodoByID(ctx context.Context, id string) (*models.Todo, error) {
	query := `
		SELECT id, title, description, level, completed, user_id, created_at, updated_at
		FROM todos WHERE id = $1
	`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewItemError("TodoByID", "todo", id, persistence.ErrItemNotFound)
		}

		return nil, fmt.Errorf("failed to scan todo: %w", err)
	}

	return todo, nil
}

func (r *ItemRepository) Todos(ctx context.Context) ([]*models.Todo, error) {
	query := `
		SELECT id, title, description, level, completed, user_id, created_at, updated_at
		FROM todos ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	todos := make([]*models.Todo, 0)

	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}

		todos = append(todos, todo)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

func (r *ItemRepository) DeleteTodo(ctx context.Context, id string) error {
	return r.delete(ctx, "DeleteTodo", "todo", `DELETE FROM todos WHERE id = $1`, id)
}

func (r *ItemRepository) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		invoice.ID = id
	}

	query := `
		INSERT INTO invoices (id, amount, status, level, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			level = EXCLUDED.level,
			user_id = EXCLUDED.user_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		invoice.ID, invoice.Amount, invoice.Status, invoice.Level,
		nullString(invoice.UserID), invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}

	return nil
}

func (r *ItemRepository) InvoiceByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := `
		SELECT id, amount, status, level, user_id, created_at, updated_at
		FROM invoices WHERE id = $1
	`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewItemError("InvoiceByID", "invoice", id, persistence.ErrItemNotFound)
		}

		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	return invoice, nil
}

func (r *ItemRepository) Invoices(ctx context.Context) ([]*models.Invoice, error) {
	query := `
		SELECT id, amount, status, level, user_id, created_at, updated_at
		FROM invoices ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	invoices := make([]*models.Invoice, 0)

	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}

		invoices = append(invoices, invoice)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

func (r *ItemRepository) DeleteInvoice(ctx context.Context, id string) error {
	return r.delete(ctx, "DeleteInvoice", "invoice", `DELETE FROM invoices WHERE id = $1`, id)
}

func (r *ItemRepository) delete(ctx context.Context, op, kind, query, id string) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewItemError(op, kind, id, persistence.ErrItemNotFound)
	}

	return nil
}

func scanTodo(row scanner) (*models.Todo, error) {
	var (
		todo   models.Todo
		userID sql.NullString
	)

	err := row.Scan(&todo.ID, &todo.Title, &todo.Description, &todo.Level, &todo.Completed, &userID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, err
	}

	todo.UserID = userID.String
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()

	return &todo, nil
}

func scanInvoice(row scanner) (*models.Invoice, error) {
	var (
		invoice models.Invoice
		userID  sql.NullString
	)

	err := row.Scan(&invoice.ID, &invoice.Amount, &invoice.Status, &invoice.Level, &userID, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}

	invoice.UserID = userID.String
	invoice.CreatedAt = invoice.CreatedAt.UTC()
	invoice.UpdatedAt = invoice.UpdatedAt.UTC()

	return &invoice, nil
}
