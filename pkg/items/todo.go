package items

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
)

type TodoStore struct {
	repo persistence.TodoRepository
	now  func() time.Time
}

func NewTodoStore(repo persistence.TodoRepository) *TodoStore {
	return &TodoStore{repo: repo, now: time.Now}
}

func (s *TodoStore) Apply(ctx context.Context, operation models.Operation, itemID string, data map[string]any) (any, error) {
	switch operation {
	case models.OperationCreate:
		return s.create(ctx, data)
	case models.OperationUpdate:
		return s.update(ctx, itemID, data)
	case models.OperationDelete:
		return nil, s.repo.DeleteTodo(ctx, itemID)
	default:
		return nil, fmt.Errorf("unsupported todo operation %s", operation)
	}
}

func (s *TodoStore) CurrentData(ctx context.Context, itemID string) (map[string]any, error) {
	todo, err := s.repo.TodoByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return TodoData(todo), nil
}

func (s *TodoStore) Get(ctx context.Context, id string) (*models.Todo, error) {
	return s.repo.TodoByID(ctx, id)
}

func (s *TodoStore) List(ctx context.Context) ([]*models.Todo, error) {
	return s.repo.Todos(ctx)
}

func (s *TodoStore) create(ctx context.Context, data map[string]any) (*models.Todo, error) {
	now := s.now().UTC()
	todo := &models.Todo{Level: models.LevelMedium, CreatedAt: now, UpdatedAt: now}

	err := mergeTodo(todo, data)
	if err != nil {
		return nil, err
	}

	if todo.Title == "" {
		return nil, invalid("title", "is required")
	}

	err = s.repo.SaveTodo(ctx, todo)
	if err != nil {
		return nil, err
	}

	return todo, nil
}

func (s *TodoStore) update(ctx context.Context, id string, data map[string]any) (*models.Todo, error) {
	todo, err := s.repo.TodoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = mergeTodo(todo, data)
	if err != nil {
		return nil, err
	}

	if todo.Title == "" {
		return nil, invalid("title", "must not be empty")
	}

	todo.UpdatedAt = s.now().UTC()

	err = s.repo.SaveTodo(ctx, todo)
	if err != nil {
		return nil, err
	}

	return todo, nil
}

// mergeTodo copies the fields present in data onto todo.
func mergeTodo(todo *models.Todo, data map[string]any) error {
	if v, ok, err := stringField(data, "title"); err != nil {
		return err
	} else if ok {
		todo.Title = v
	}

	if v, ok, err := stringField(data, "description"); err != nil {
		return err
	} else if ok {
		todo.Description = v
	}

	if v, ok, err := levelField(data); err != nil {
		return err
	} else if ok {
		todo.Level = v
	}

	if v, ok, err := boolField(data, "completed"); err != nil {
		return err
	} else if ok {
		todo.Completed = v
	}

	if v, ok, err := stringField(data, "user_id"); err != nil {
		return err
	} else if ok {
		todo.UserID = v
	}

	return nil
}

// TodoData exposes the user editable fields of todo keyed like request data.
func TodoData(todo *models.Todo) map[string]any {
	return map[string]any{
		"title":       todo.Title,
		"description": todo.Description,
		"level":       string(todo.Level),
		"completed":   todo.Completed,
		"user_id":     todo.UserID,
	}
}
