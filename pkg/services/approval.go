package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/events"
	"github.com/dukex/approvals/pkg/locks"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/otelhelper"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/dukex/approvals/pkg/rules"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ApprovalStore is the storage the engine needs for requests and decisions.
type ApprovalStore interface {
	persistence.RequestRepository
	persistence.DecisionRepository
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRoles(ctx context.Context, roles []models.Role) ([]*models.User, error)
}

// Executor applies the change of an approved request.
type Executor interface {
	Apply(ctx context.Context, request *models.ApprovalRequest) (any, error)
}

// Approval is the request state machine. Decisions and withdrawals on one
// request are serialized by a per-request lock and creations against one
// item by a per-item lock.
type Approval struct {
	store    ApprovalStore
	matcher  *rules.Matcher
	users    UserDirectory
	executor Executor
	notifier notification.Notifier
	locker   locks.Locker
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

type ApprovalOption func(*Approval)

func WithLocker(locker locks.Locker) ApprovalOption {
	return func(a *Approval) {
		a.locker = locker
	}
}

func WithTracer(tracer trace.Tracer) ApprovalOption {
	return func(a *Approval) {
		a.tracer = tracer
	}
}

func WithClock(now func() time.Time) ApprovalOption {
	return func(a *Approval) {
		a.now = now
	}
}

// NewApproval creates the approval engine. Without options it uses an
// in-process locker, the global tracer and the wall clock.
func NewApproval(
	store ApprovalStore,
	matcher *rules.Matcher,
	users UserDirectory,
	executor Executor,
	notifier notification.Notifier,
	logger *slog.Logger,
	opts ...ApprovalOption,
) *Approval {
	a := &Approval{
		store:    store,
		matcher:  matcher,
		users:    users,
		executor: executor,
		notifier: notifier,
		locker:   locks.NewLocal(),
		tracer:   otelhelper.Tracer("approvals"),
		logger:   logger.With("module", "approval"),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// RequiresApproval reports whether a rule governs the change.
func (a *Approval) RequiresApproval(itemType models.ItemType, operation models.Operation, data map[string]any) bool {
	return a.matcher.RequiresApproval(itemType, operation, data)
}

// Rules returns the configured rules in declaration order.
func (a *Approval) Rules() []models.ApprovalRule {
	return a.matcher.Catalog().Rules()
}

// RuleFor re-resolves the rule governing request.
func (a *Approval) RuleFor(request *models.ApprovalRequest) (*models.ApprovalRule, bool) {
	return a.matcher.Match(request.ItemType, request.Operation, request.Data)
}

// RequirementFor describes the approvals request still depends on. It is
// empty when no rule governs the request anymore.
func (a *Approval) RequirementFor(request *models.ApprovalRequest) string {
	rule, ok := a.RuleFor(request)
	if !ok {
		return ""
	}

	return rules.Describe(rule)
}

type CreateRequest struct {
	ItemType    models.ItemType
	ItemID      string
	Operation   models.Operation
	Data        map[string]any
	RequesterID string
}

// Create opens a PENDING request for a change some rule governs and tells
// every user holding a role of that rule.
func (a *Approval) Create(ctx context.Context, input CreateRequest) (*models.ApprovalRequest, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "approval.create",
		attribute.String(otelhelper.ItemTypeKey, string(input.ItemType)),
		attribute.String(otelhelper.ItemIDKey, input.ItemID),
		attribute.String(otelhelper.OperationKey, string(input.Operation)),
		attribute.String(otelhelper.UserIDKey, input.RequesterID),
	)
	defer span.End()

	err := validateCreate(input)
	if err != nil {
		return nil, a.fail(span, newError("Create", "validation_error", err))
	}

	rule, ok := a.matcher.Match(input.ItemType, input.Operation, input.Data)
	if !ok {
		return nil, a.fail(span, newError("Create", "approval_not_required", ErrApprovalNotRequired))
	}

	span.SetAttributes(attribute.String(otelhelper.RuleNameKey, rule.Name))

	_, err = a.users.FindByID(ctx, input.RequesterID)
	if err != nil {
		return nil, a.fail(span, lookupError("Create", input.RequesterID, ErrRequesterNotFound, err))
	}

	id, err := persistence.NewID()
	if err != nil {
		return nil, a.fail(span, err)
	}

	now := a.now().UTC()
	data := maps.Clone(input.Data)

	if data == nil {
		data = map[string]any{}
	}

	request := &models.ApprovalRequest{
		ID:          id,
		ItemType:    input.ItemType,
		ItemID:      input.ItemID,
		Operation:   input.Operation,
		Data:        data,
		Status:      models.RequestStatusPending,
		RequesterID: input.RequesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if request.ItemID != "" {
		unlock, err := a.locker.Lock(ctx, locks.ItemKey(string(request.ItemType), request.ItemID))
		if err != nil {
			return nil, a.fail(span, err)
		}
		defer unlock()
	}

	err = a.store.CreateRequest(ctx, request)
	if err != nil {
		if persistence.IsActiveRequestExists(err) {
			return nil, a.fail(span, newError("Create", "active_request_exists", err))
		}

		return nil, a.fail(span, err)
	}

	span.SetAttributes(attribute.String(otelhelper.RequestIDKey, request.ID))
	a.logger.InfoContext(ctx, "Approval request created",
		"request_id", request.ID,
		"item_type", request.ItemType,
		"operation", request.Operation,
		"rule", rule.Name,
		"requester_id", request.RequesterID,
	)

	a.notifyRoles(ctx, events.RequestedEvent, request, rule.Roles())

	return request.Clone(), nil
}

func validateCreate(input CreateRequest) error {
	if input.ItemType == "" {
		return ErrInvalidItemType
	}

	if !input.Operation.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperation, input.Operation)
	}

	if input.RequesterID == "" {
		return fmt.Errorf("%w: requester id is required", ErrInvalidRequest)
	}

	if input.Operation == models.OperationCreate && input.ItemID != "" {
		return ErrItemIDNotAllowed
	}

	if input.Operation != models.OperationCreate && input.ItemID == "" {
		return ErrItemIDRequired
	}

	return nil
}

// Decide records the decision of approverID on a request. A rejection
// vetoes the request. An approval that satisfies the governing rule
// executes the change before the request is stored as APPROVED; if the
// change fails the request ends REJECTED and an *ExecutionError is returned.
func (a *Approval) Decide(ctx context.Context, requestID, approverID string, approved bool, comment string) (*models.ApprovalRequest, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "approval.decide",
		attribute.String(otelhelper.RequestIDKey, requestID),
		attribute.String(otelhelper.UserIDKey, approverID),
		attribute.Bool("approvals.decision.approved", approved),
	)
	defer span.End()

	unlock, err := a.locker.Lock(ctx, locks.RequestKey(requestID))
	if err != nil {
		return nil, a.fail(span, err)
	}
	defer unlock()

	request, err := a.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, a.fail(span, err)
	}

	if !request.IsActive() {
		return nil, a.fail(span, notActive("Decide", request))
	}

	approver, err := a.users.FindByID(ctx, approverID)
	if err != nil {
		return nil, a.fail(span, lookupError("Decide", approverID, ErrApproverNotFound, err))
	}

	rule, ruleFound := a.RuleFor(request)

	switch {
	case !ruleFound && approved:
		a.logger.ErrorContext(ctx, "No approval rule matches an active request",
			"request_id", request.ID,
			"item_type", request.ItemType,
			"operation", request.Operation,
		)

		return nil, a.fail(span, newError("Decide", "configuration_error", ErrRuleMissing))
	case ruleFound && !rule.HasRole(approver.Role):
		return nil, a.fail(span, &ServiceError{
			Op:      "Decide",
			Code:    "not_eligible",
			Message: fmt.Sprintf("role %s is not required to approve request #%s", approver.Role, request.ID),
			Err:     ErrNotEligible,
		})
	}

	decisionID, err := persistence.NewID()
	if err != nil {
		return nil, a.fail(span, err)
	}

	decision := &models.ApprovalDecision{
		ID:           decisionID,
		RequestID:    request.ID,
		ApproverID:   approver.ID,
		ApproverRole: approver.Role,
		Approved:     approved,
		Comment:      comment,
		CreatedAt:    a.now().UTC(),
	}

	err = a.store.SaveDecision(ctx, decision)
	if err != nil {
		if persistence.IsDecisionExists(err) {
			return nil, a.fail(span, &ServiceError{
				Op:      "Decide",
				Code:    "already_decided",
				Message: "you have already submitted a decision for this request",
				Err:     err,
			})
		}

		return nil, a.fail(span, err)
	}

	a.logger.InfoContext(ctx, "Decision recorded",
		"request_id", request.ID,
		"approver_id", approver.ID,
		"approver_role", approver.Role,
		"approved", approved,
	)

	if !approved {
		request.Status = models.RequestStatusRejected
		request.StatusReason = comment
		request.UpdatedAt = a.now().UTC()

		err = a.store.SaveRequest(ctx, request)
		if err != nil {
			return nil, a.fail(span, err)
		}

		a.notifyRequester(ctx, events.RejectedEvent, request, map[string]any{notification.ReasonKey: comment})

		return request.Clone(), nil
	}

	decisions, err := a.store.DecisionsByRequest(ctx, request.ID)
	if err != nil {
		return nil, a.fail(span, err)
	}

	if rules.IsSatisfied(rule, rules.ApprovedRoles(decisions)) {
		return a.approve(ctx, span, request)
	}

	request.Status = models.RequestStatusPartiallyApproved
	request.UpdatedAt = a.now().UTC()

	err = a.store.SaveRequest(ctx, request)
	if err != nil {
		return nil, a.fail(span, err)
	}

	a.notifyRequester(ctx, events.ApproverRespondedEvent, request, map[string]any{"approver_id": approver.ID})

	return request.Clone(), nil
}

// approve claims the request as APPROVED before the change runs, so a
// request whose claim was not stored is never dispatched and a stored claim
// is dispatched at most once. A failed change moves the request on from
// APPROVED to REJECTED with the failure as its reason.
func (a *Approval) approve(ctx context.Context, span trace.Span, request *models.ApprovalRequest) (*models.ApprovalRequest, error) {
	from := request.Status

	request.Status = models.RequestStatusApproved
	request.UpdatedAt = a.now().UTC()

	err := a.store.TransitionRequest(ctx, request, from)
	if err != nil {
		if persistence.IsRequestStatusChanged(err) {
			return nil, a.fail(span, &ServiceError{
				Op:      "Decide",
				Code:    "request_not_active",
				Message: fmt.Sprintf("request #%s is no longer %s", request.ID, from),
				Err:     fmt.Errorf("%w: %w", ErrRequestNotActive, err),
			})
		}

		return nil, a.fail(span, err)
	}

	_, execErr := a.executor.Apply(ctx, request)
	if execErr == nil {
		a.logger.InfoContext(ctx, "Approval request approved and executed", "request_id", request.ID)
		a.notifyRequester(ctx, events.ApprovedEvent, request, nil)

		return request.Clone(), nil
	}

	reason := "Failed to execute change: " + execErr.Error()
	request.Status = models.RequestStatusRejected
	request.StatusReason = reason
	request.UpdatedAt = a.now().UTC()

	err = a.store.TransitionRequest(ctx, request, models.RequestStatusApproved)
	if err != nil {
		a.logger.ErrorContext(ctx, "Approved request left APPROVED after its change failed",
			"request_id", request.ID,
			"change_error", execErr,
			"error", err,
		)

		return nil, a.fail(span, fmt.Errorf("%w (while recording execution failure: %w)", err, execErr))
	}

	a.notifyRequester(ctx, events.RejectedEvent, request, map[string]any{notification.ReasonKey: reason})

	if dispatch.IsConfigurationError(execErr) {
		a.logger.ErrorContext(ctx, "Approved request cannot be dispatched", "request_id", request.ID, "error", execErr)

		return nil, a.fail(span, newError("Decide", "configuration_error", execErr))
	}

	a.logger.WarnContext(ctx, "Approved change failed, request rejected", "request_id", request.ID, "error", execErr)

	return nil, a.fail(span, &ExecutionError{Request: request.Clone(), Err: execErr})
}

// Withdraw lets the requester cancel an active request. Eligible approvers
// are told no further action is needed.
func (a *Approval) Withdraw(ctx context.Context, requestID, userID string) (*models.ApprovalRequest, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "approval.withdraw",
		attribute.String(otelhelper.RequestIDKey, requestID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	unlock, err := a.locker.Lock(ctx, locks.RequestKey(requestID))
	if err != nil {
		return nil, a.fail(span, err)
	}
	defer unlock()

	request, err := a.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, a.fail(span, err)
	}

	if request.RequesterID != userID {
		return nil, a.fail(span, newError("Withdraw", "not_requester", ErrNotRequester))
	}

	if !request.IsActive() {
		return nil, a.fail(span, notActive("Withdraw", request))
	}

	request.Status = models.RequestStatusWithdrawn
	request.UpdatedAt = a.now().UTC()

	err = a.store.SaveRequest(ctx, request)
	if err != nil {
		return nil, a.fail(span, err)
	}

	a.logger.InfoContext(ctx, "Approval request withdrawn", "request_id", request.ID)

	rule, ok := a.RuleFor(request)
	if !ok {
		a.logger.ErrorContext(ctx, "No approval rule matches a withdrawn request, approvers not notified", "request_id", request.ID)

		return request.Clone(), nil
	}

	a.notifyRoles(ctx, events.WithdrawnEvent, request, rule.Roles())

	return request.Clone(), nil
}

func (a *Approval) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return a.store.RequestByID(ctx, id)
}

// ListByRequester returns the requests of a user, newest first.
func (a *Approval) ListByRequester(ctx context.Context, userID string) ([]*models.ApprovalRequest, error) {
	return a.store.RequestsByRequester(ctx, userID)
}

// ListPendingForApprover returns the active requests whose rule needs the
// user's role and that the user has not decided yet, oldest first.
func (a *Approval) ListPendingForApprover(ctx context.Context, userID string) ([]*models.ApprovalRequest, error) {
	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	active, err := a.store.ActiveRequests(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]*models.ApprovalRequest, 0, len(active))

	for _, request := range active {
		awaits, err := a.awaits(ctx, request, user)
		if err != nil {
			return nil, err
		}

		if awaits {
			pending = append(pending, request)
		}
	}

	return pending, nil
}

// awaits reports whether request still needs a decision from user.
func (a *Approval) awaits(ctx context.Context, request *models.ApprovalRequest, user *models.User) (bool, error) {
	rule, ok := a.RuleFor(request)
	if !ok || !rule.HasRole(user.Role) {
		return false, nil
	}

	decisions, err := a.store.DecisionsByRequest(ctx, request.ID)
	if err != nil {
		return false, err
	}

	decided := slices.ContainsFunc(decisions, func(d *models.ApprovalDecision) bool {
		return d.ApproverID == user.ID
	})

	return !decided, nil
}

// WithItemLock runs fn while holding the lock that serializes request
// creation for the item.
func (a *Approval) WithItemLock(ctx context.Context, itemType models.ItemType, itemID string, fn func(ctx context.Context) error) error {
	unlock, err := a.locker.Lock(ctx, locks.ItemKey(string(itemType), itemID))
	if err != nil {
		return err
	}
	defer unlock()

	return fn(ctx)
}

// HasActiveRequest reports whether an active request targets the item.
func (a *Approval) HasActiveRequest(ctx context.Context, itemType models.ItemType, itemID string) (bool, error) {
	active, err := a.store.ActiveRequests(ctx)
	if err != nil {
		return false, err
	}

	return slices.ContainsFunc(active, func(r *models.ApprovalRequest) bool {
		return r.ItemType == itemType && r.ItemID == itemID
	}), nil
}

// ListDecisions returns the decision history of a request in recording order.
func (a *Approval) ListDecisions(ctx context.Context, requestID string) ([]*models.ApprovalDecision, error) {
	_, err := a.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	return a.store.DecisionsByRequest(ctx, requestID)
}

func (a *Approval) notifyRoles(ctx context.Context, kind events.EventType, request *models.ApprovalRequest, roles []models.Role) {
	recipients, err := a.users.FindByRoles(ctx, roles)
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to resolve notification recipients", "kind", kind, "request_id", request.ID, "error", err)

		return
	}

	a.notifier.Notify(ctx, kind, request.Clone(), recipients, nil)
}

func (a *Approval) notifyRequester(ctx context.Context, kind events.EventType, request *models.ApprovalRequest, extra map[string]any) {
	requester, err := a.users.FindByID(ctx, request.RequesterID)
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to resolve requester for notification", "kind", kind, "request_id", request.ID, "error", err)

		return
	}

	a.notifier.Notify(ctx, kind, request.Clone(), []*models.User{requester}, extra)
}

func (a *Approval) fail(span trace.Span, err error) error {
	otelhelper.SetError(span, err)

	return err
}

func notActive(op string, request *models.ApprovalRequest) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    "request_not_active",
		Message: fmt.Sprintf("request #%s is no longer pending (status: %s)", request.ID, request.Status),
		Err:     ErrRequestNotActive,
	}
}

// lookupError maps a missing user onto the role specific sentinel.
func lookupError(op, userID string, sentinel, err error) error {
	if !persistence.IsUserNotFound(err) {
		return err
	}

	return &ServiceError{
		Op:      op,
		Code:    "not_found",
		Message: fmt.Sprintf("%v: %s", sentinel, userID),
		Err:     fmt.Errorf("%w: %w", sentinel, err),
	}
}
