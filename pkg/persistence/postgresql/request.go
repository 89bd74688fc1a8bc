package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
)

const (
	activeItemConstraint       = "uq_approval_requests_active_item"
	approverDecisionConstraint = "uq_approval_decisions_approver"
)

const requestColumns = `
			id
		  , item_type
		  , item_id
		  , operation
		  , data
		  , status
		  , status_reason
		  , requester_id
		  , created_at
		  , updated_at
`

// RequestRepository handles approval request and decision database operations.
type RequestRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRequestRepository(db *sql.DB, logger *slog.Logger) *RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

// CreateRequest inserts the request; the partial unique index rejects a
// second active request for the same item.
func (r *RequestRepository) CreateRequest(ctx context.Context, request *models.ApprovalRequest) error {
	if request.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		request.ID = id
	}

	data, err := json.Marshal(request.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	query := `
		INSERT INTO approval_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		request.ID,
		request.ItemType,
		nullString(request.ItemID),
		request.Operation,
		data,
		request.Status,
		request.StatusReason,
		request.RequesterID,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeItemConstraint) {
			return persistence.NewRequestError("CreateRequest", "", persistence.ErrActiveRequestExists)
		}

		return fmt.Errorf("failed to insert approval request: %w", err)
	}

	return nil
}

func (r *RequestRepository) SaveRequest(ctx context.Context, request *models.ApprovalRequest) error {
	query := `
		UPDATE approval_requests
		SET status = $2, status_reason = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, request.ID, request.Status, request.StatusReason, request.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update approval request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewRequestError("SaveRequest", request.ID, persistence.ErrRequestNotFound)
	}

	return nil
}

func (r *RequestRepository) TransitionRequest(ctx context.Context, request *models.ApprovalRequest, from models.RequestStatus) error {
	query := `
		UPDATE approval_requests
		SET status = $2, status_reason = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query, request.ID, request.Status, request.StatusReason, request.UpdatedAt, from)
	if err != nil {
		return fmt.Errorf("failed to transition approval request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		return nil
	}

	// Nothing matched: tell a missing request from one that moved on.
	var exists bool

	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM approval_requests WHERE id = $1)`, request.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check approval request: %w", err)
	}

	if !exists {
		return persistence.NewRequestError("TransitionRequest", request.ID, persistence.ErrRequestNotFound)
	}

	return persistence.NewRequestError("TransitionRequest", request.ID, persistence.ErrRequestStatusChanged)
}

func (r *RequestRepository) RequestByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE id = $1`

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRequestError("RequestByID", id, persistence.ErrRequestNotFound)
		}

		return nil, fmt.Errorf("failed to scan approval request: %w", err)
	}

	return request, nil
}

func (r *RequestRepository) RequestsByRequester(ctx context.Context, requesterID string) ([]*models.ApprovalRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM approval_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC, id DESC
	`

	return r.queryRequests(ctx, query, requesterID)
}

func (r *RequestRepository) ActiveRequests(ctx context.Context) ([]*models.ApprovalRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM approval_requests
		WHERE status IN ('PENDING', 'PARTIALLY_APPROVED')
		ORDER BY created_at ASC, id ASC
	`

	return r.queryRequests(ctx, query)
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]*models.ApprovalRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval requests: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	requests := make([]*models.ApprovalRequest, 0)

	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}

		requests = append(requests, request)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating approval requests: %w", err)
	}

	return requests, nil
}

func (r *RequestRepository) SaveDecision(ctx context.Context, decision *models.ApprovalDecision) error {
	if decision.ID == "" {
		id, err := persistence.NewID()
		if err != nil {
			return err
		}

		decision.ID = id
	}

	query := `
		INSERT INTO approval_decisions (id, request_id, approver_id, approver_role, approved, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		decision.ID,
		decision.RequestID,
		decision.ApproverID,
		decision.ApproverRole,
		decision.Approved,
		decision.Comment,
		decision.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, approverDecisionConstraint) {
			return persistence.NewRequestError("SaveDecision", decision.RequestID, persistence.ErrDecisionExists)
		}

		return fmt.Errorf("failed to insert approval decision: %w", err)
	}

	return nil
}

func (r *RequestRepository) DecisionsByRequest(ctx context.Context, requestID string) ([]*models.ApprovalDecision, error) {
	query := `
		SELECT id, request_id, approver_id, approver_role, approved, comment, created_at
		FROM approval_decisions
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval decisions: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	decisions := make([]*models.ApprovalDecision, 0)

	for rows.Next() {
		var decision models.ApprovalDecision

		err := rows.Scan(
			&decision.ID,
			&decision.RequestID,
			&decision.ApproverID,
			&decision.ApproverRole,
			&decision.Approved,
			&decision.Comment,
			&decision.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval decision: %w", err)
		}

		decision.CreatedAt = decision.CreatedAt.UTC()
		decisions = append(decisions, &decision)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating approval decisions: %w", err)
	}

	return decisions, nil
}

func scanRequest(row scanner) (*models.ApprovalRequest, error) {
	var (
		request models.ApprovalRequest
		itemID  sql.NullString
		data    []byte
	)

	err := row.Scan(
		&request.ID,
		&request.ItemType,
		&itemID,
		&request.Operation,
		&data,
		&request.Status,
		&request.StatusReason,
		&request.RequesterID,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	request.ItemID = itemID.String
	request.CreatedAt = request.CreatedAt.UTC()
	request.UpdatedAt = request.UpdatedAt.UTC()

	err = json.Unmarshal(data, &request.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
	}

	return &request, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
