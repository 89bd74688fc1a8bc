// Package memory provides an in-process persistence implementation used for
// development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
)

// Persistence keeps every record in maps guarded by one lock. Stored values
// are copied on the way in and out so callers never share state with the store.
type Persistence struct {
	mu sync.RWMutex

	requests  []*models.ApprovalRequest
	decisions map[string][]*models.ApprovalDecision
	users     []*models.User
	todos     []*models.Todo
	invoices  []*models.Invoice
}

func NewPersistence() *Persistence {
	return &Persistence{
		decisions: make(map[string][]*models.ApprovalDecision),
	}
}

func (p *Persistence) HealthCheck(context.Context) error {
	return nil
}

func (p *Persistence) Close(context.Context) error {
	return nil
}

func (p *Persistence) CreateRequest(_ context.Context, request *models.ApprovalRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if request.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		request.ID = id
	}

	if key := request.ItemKey(); key != "" && request.IsActive() {
		for _, existing := range p.requests {
			if existing.IsActive() && existing.ItemKey() == key {
				return persistence.NewRequestError("CreateRequest", "", persistence.ErrActiveRequestExists)
			}
		}
	}

	p.requests = append(p.requests, request.Clone())

	return nil
}

func (p *Persistence) SaveRequest(_ context.Context, request *models.ApprovalRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.requestIndex(request.ID)
	if i < 0 {
		return persistence.NewRequestError("SaveRequest", request.ID, persistence.ErrRequestNotFound)
	}

	stored := p.requests[i]
	stored.Status = request.Status
	stored.StatusReason = request.StatusReason
	stored.UpdatedAt = request.UpdatedAt

	return nil
}

func (p *Persistence) TransitionRequest(_ context.Context, request *models.ApprovalRequest, from models.RequestStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.requestIndex(request.ID)
	if i < 0 {
		return persistence.NewRequestError("TransitionRequest", request.ID, persistence.ErrRequestNotFound)
	}

	stored := p.requests[i]
	if stored.Status != from {
		return persistence.NewRequestError("TransitionRequest", request.ID, persistence.ErrRequestStatusChanged)
	}

	stored.Status = request.Status
	stored.StatusReason = request.StatusReason
	stored.UpdatedAt = request.UpdatedAt

	return nil
}

func (p *Persistence) RequestByID(_ context.Context, id string) (*models.ApprovalRequest, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.requestIndex(id)
	if i < 0 {
		return nil, persistence.NewRequestError("RequestByID", id, persistence.ErrRequestNotFound)
	}

	return p.requests[i].Clone(), nil
}

func (p *Persistence) RequestsByRequester(_ context.Context, requesterID string) ([]*models.ApprovalRequest, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.ApprovalRequest, 0)

	for i := len(p.requests) - 1; i >= 0; i-- {
		if p.requests[i].RequesterID == requesterID {
			result = append(result, p.requests[i].Clone())
		}
	}

	slices.SortStableFunc(result, func(a, b *models.ApprovalRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return result, nil
}

func (p *Persistence) ActiveRequests(context.Context) ([]*models.ApprovalRequest, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.ApprovalRequest, 0)

	for _, request := range p.requests {
		if request.IsActive() {
			result = append(result, request.Clone())
		}
	}

	slices.SortStableFunc(result, func(a, b *models.ApprovalRequest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return result, nil
}

func (p *Persistence) SaveDecision(_ context.Context, decision *models.ApprovalDecision) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.requestIndex(decision.RequestID) < 0 {
		return persistence.NewRequestError("SaveDecision", decision.RequestID, persistence.ErrRequestNotFound)
	}

	for _, existing := range p.decisions[decision.RequestID] {
		if existing.ApproverID == decision.ApproverID {
			return persistence.NewRequestError("SaveDecision", decision.RequestID, persistence.ErrDecisionExists)
		}
	}

	if decision.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		decision.ID = id
	}

	stored := *decision
	p.decisions[decision.RequestID] = append(p.decisions[decision.RequestID], &stored)

	return nil
}

func (p *Persistence) DecisionsByRequest(_ context.Context, requestID string) ([]*models.ApprovalDecision, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stored := p.decisions[requestID]
	result := make([]*models.ApprovalDecision, 0, len(stored))

	for _, decision := range stored {
		c := *decision
		result = append(result, &c)
	}

	return result, nil
}

func (p *Persistence) SaveUser(_ context.Context, user *models.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.users {
		if existing.Username == user.Username && existing.ID != user.ID {
			return persistence.NewItemError("SaveUser", "user", user.Username, persistence.ErrUsernameTaken)
		}
	}

	if user.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		user.ID = id
	}

	stored := *user

	i := slices.IndexFunc(p.users, func(u *models.User) bool { return u.ID == user.ID })
	if i >= 0 {
		p.users[i] = &stored
	} else {
		p.users = append(p.users, &stored)
	}

	return nil
}

func (p *Persistence) UserByID(_ context.Context, id string) (*models.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, user := range p.users {
		if user.ID == id {
			c := *user

			return &c, nil
		}
	}

	return nil, persistence.NewItemError("UserByID", "user", id, persistence.ErrUserNotFound)
}

func (p *Persistence) Users(context.Context) ([]*models.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return copyUsers(p.users, func(*models.User) bool { return true }), nil
}

func (p *Persistence) UsersByRoles(_ context.Context, roles []models.Role) ([]*models.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return copyUsers(p.users, func(u *models.User) bool { return slices.Contains(roles, u.Role) }), nil
}

func copyUsers(users []*models.User, keep func(*models.User) bool) []*models.User {
	result := make([]*models.User, 0, len(users))

	for _, user := range users {
		if keep(user) {
			c := *user
			result = append(result, &c)
		}
	}

	slices.SortStableFunc(result, func(a, b *models.User) int {
		return cmp.Compare(a.Username, b.Username)
	})

	return result
}

func (p *Persistence) SaveTodo(_ context.Context, todo *models.Todo) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if todo.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		todo.ID = id
	}

	stored := *todo

	i := slices.IndexFunc(p.todos, func(t *models.Todo) bool { return t.ID == todo.ID })
	if i >= 0 {
		p.todos[i] = &stored
	} else {
		p.todos = append(p.todos, &stored)
	}

	return nil
}

func (p *Persistence) TodoByID(_ context.Context, id string) (*models.Todo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, todo := range p.todos {
		if todo.ID == id {
			c := *todo

			return &c, nil
		}
	}

	return nil, persistence.NewItemError("TodoByID", "todo", id, persistence.ErrItemNotFound)
}

func (p *Persistence) Todos(context.Context) ([]*models.Todo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.Todo, 0, len(p.todos))
	for _, todo := range p.todos {
		c := *todo
		result = append(result, &c)
	}

	return result, nil
}

func (p *Persistence) DeleteTodo(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.todos, func(t *models.Todo) bool { return t.ID == id })
	if i < 0 {
		return persistence.NewItemError("DeleteTodo", "todo", id, persistence.ErrItemNotFound)
	}

	p.todos = slices.Delete(p.todos, i, i+1)

	return nil
}

func (p *Persistence) SaveInvoice(_ context.Context, invoice *models.Invoice) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if invoice.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		invoice.ID = id
	}

	stored := *invoice

	i := slices.IndexFunc(p.invoices, func(inv *models.Invoice) bool { return inv.ID == invoice.ID })
	if i >= 0 {
		p.invoices[i] = &stored
	} else {
		p.invoices = append(p.invoices, &stored)
	}

	return nil
}

func (p *Persistence) InvoiceByID(_ context.Context, id string) (*models.Invoice, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, invoice := range p.invoices {
		if invoice.ID == id {
			c := *invoice

			return &c, nil
		}
	}

	return nil, persistence.NewItemError("InvoiceByID", "invoice", id, persistence.ErrItemNotFound)
}

func (p *Persistence) Invoices(context.Context) ([]*models.Invoice, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.Invoice, 0, len(p.invoices))
	for _, invoice := range p.invoices {
		c := *invoice
		result = append(result, &c)
	}

	return result, nil
}

func (p *Persistence) DeleteInvoice(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.invoices, func(inv *models.Invoice) bool { return inv.ID == id })
	if i < 0 {
		return persistence.NewItemError("DeleteInvoice", "invoice", id, persistence.ErrItemNotFound)
	}

	p.invoices = slices.Delete(p.invoices, i, i+1)

	return nil
}

func (p *Persistence) requestIndex(id string) int {
	return slices.IndexFunc(p.requests, func(r *models.ApprovalRequest) bool { return r.ID == id })
}
