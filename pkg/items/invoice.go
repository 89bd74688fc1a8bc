package items

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
)

type InvoiceStore struct {
	repo persistence.InvoiceRepository
	now  func() time.Time
}

func NewInvoiceStore(repo persistence.InvoiceRepository) *InvoiceStore {
	return &InvoiceStore{repo: repo, now: time.Now}
}

func (s *InvoiceStore) Apply(ctx context.Context, operation models.Operation, itemID string, data map[string]any) (any, error) {
	switch operation {
	case models.OperationCreate:
		return s.create(ctx, data)
	case models.OperationUpdate:
		return s.update(ctx, itemID, data)
	case models.OperationDelete:
		return nil, s.repo.DeleteInvoice(ctx, itemID)
	default:
		return nil, fmt.Errorf("unsupported invoice operation %s", operation)
	}
}

func (s *InvoiceStore) CurrentData(ctx context.Context, itemID string) (map[string]any, error) {
	invoice, err := s.repo.InvoiceByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return InvoiceData(invoice), nil
}

func (s *InvoiceStore) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return s.repo.InvoiceByID(ctx, id)
}

func (s *InvoiceStore) List(ctx context.Context) ([]*models.Invoice, error) {
	return s.repo.Invoices(ctx)
}

func (s *InvoiceStore) create(ctx context.Context, data map[string]any) (*models.Invoice, error) {
	now := s.now().UTC()
	invoice := &models.Invoice{
		Status:    models.InvoiceStatusCreated,
		Level:     models.LevelMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := mergeInvoice(invoice, data)
	if err != nil {
		return nil, err
	}

	if invoice.Amount == "" {
		return nil, invalid("amount", "is required")
	}

	err = s.repo.SaveInvoice(ctx, invoice)
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (s *InvoiceStore) update(ctx context.Context, id string, data map[string]any) (*models.Invoice, error) {
	invoice, err := s.repo.InvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = mergeInvoice(invoice, data)
	if err != nil {
		return nil, err
	}

	invoice.UpdatedAt = s.now().UTC()

	err = s.repo.SaveInvoice(ctx, invoice)
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func mergeInvoice(invoice *models.Invoice, data map[string]any) error {
	if v, ok, err := amountField(data); err != nil {
		return err
	} else if ok {
		invoice.Amount = v
	}

	if v, ok, err := stringField(data, "status"); err != nil {
		return err
	} else if ok {
		status := models.InvoiceStatus(strings.ToUpper(v))
		if !status.Valid() {
			return invalid("status", "must be one of CREATED, SENT, PAID, CANCELLED")
		}

		invoice.Status = status
	}

	if v, ok, err := levelField(data); err != nil {
		return err
	} else if ok {
		invoice.Level = v
	}

	if v, ok, err := stringField(data, "user_id"); err != nil {
		return err
	} else if ok {
		invoice.UserID = v
	}

	return nil
}

func InvoiceData(invoice *models.Invoice) map[string]any {
	return map[string]any{
		"amount":  invoice.Amount,
		"status":  string(invoice.Status),
		"level":   string(invoice.Level),
		"user_id": invoice.UserID,
	}
}
