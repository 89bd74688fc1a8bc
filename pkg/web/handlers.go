// Package web provides HTTP handlers and REST API endpoints for approval requests and the items they govern.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/items"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/dukex/approvals/pkg/services"
	"github.com/dukex/approvals/pkg/users"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	approval   *services.Approval
	changes    *services.Changes
	health     *services.Health
	users      *users.Directory
	todos      *items.TodoStore
	invoices   *items.InvoiceStore
	dispatcher *dispatch.Dispatcher
	validator  *validator.Validate
}

func NewAPIHandlers(
	approval *services.Approval,
	changes *services.Changes,
	health *services.Health,
	directory *users.Directory,
	todos *items.TodoStore,
	invoices *items.InvoiceStore,
	dispatcher *dispatch.Dispatcher,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		approval:   approval,
		changes:    changes,
		health:     health,
		users:      directory,
		todos:      todos,
		invoices:   invoices,
		dispatcher: dispatcher,
		validator:  validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.health.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Approvals API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Approvals API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) CreateApprovalRequest(c fiber.Ctx) error {
	requesterID := c.Query("requesterId")
	if requesterID == "" {
		return badRequest(c, "requesterId is required")
	}

	var req CreateApprovalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	request, err := h.approval.Create(c.Context(), services.CreateRequest{
		ItemType:    models.ItemType(req.ItemType),
		ItemID:      req.ItemID,
		Operation:   models.Operation(req.Operation),
		Data:        req.Data,
		RequesterID: requesterID,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.requestResponse(c, request))
}

func (h *APIHandlers) RespondToRequest(c fiber.Ctx) error {
	approverID := c.Query("approverId")
	if approverID == "" {
		return badRequest(c, "approverId is required")
	}

	var req RespondRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	request, err := h.approval.Decide(c.Context(), c.Params("id"), approverID, req.Decision == "APPROVE", req.Comment)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(h.requestResponse(c, request))
}

func (h *APIHandlers) WithdrawRequest(c fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}

	request, err := h.approval.Withdraw(c.Context(), c.Params("id"), userID)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(h.requestResponse(c, request))
}

func (h *APIHandlers) GetApprovalRequest(c fiber.Ctx) error {
	request, err := h.approval.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(h.requestResponse(c, request))
}

func (h *APIHandlers) GetApprovalRecords(c fiber.Ctx) error {
	decisions, err := h.approval.ListDecisions(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	response := make([]DecisionResponse, 0, len(decisions))
	for _, decision := range decisions {
		response = append(response, TransformDecisionResponse(decision, h.username(c, decision.ApproverID)))
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetApprovalDiff(c fiber.Ctx) error {
	request, err := h.approval.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	store, ok := h.dispatcher.Store(request.ItemType)
	if !ok {
		return h.handleServiceError(c, dispatch.ErrUnknownItemType)
	}

	changes, err := items.Diff(c.Context(), store, request)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"request_id": request.ID,
		"operation":  request.Operation,
		"changes":    changes,
	})
}

func (h *APIHandlers) GetRequestsByRequester(c fiber.Ctx) error {
	requests, err := h.approval.ListByRequester(c.Context(), c.Params("userId"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(h.requestResponses(c, requests))
}

func (h *APIHandlers) GetPendingForApprover(c fiber.Ctx) error {
	requests, err := h.approval.ListPendingForApprover(c.Context(), c.Params("userId"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(h.requestResponses(c, requests))
}

func (h *APIHandlers) CheckApproval(c fiber.Ctx) error {
	var req ApprovalCheckRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	request := &models.ApprovalRequest{
		ItemType:  models.ItemType(req.ItemType),
		Operation: models.Operation(req.Operation),
		Data:      req.Data,
	}

	requirement := h.approval.RequirementFor(request)

	return c.JSON(ApprovalCheckResponse{
		ApprovalRequired: requirement != "",
		Requirement:      requirement,
	})
}

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	configured := h.approval.Rules()

	response := make([]RuleResponse, 0, len(configured))
	for i := range configured {
		response = append(response, RuleResponse{ApprovalRule: configured[i], Description: rules.Describe(&configured[i])})
	}

	return c.JSON(response)
}

func (h *APIHandlers) requestResponse(c fiber.Ctx, request *models.ApprovalRequest) ApprovalRequestResponse {
	return ApprovalRequestResponse{
		ID:                request.ID,
		ItemType:          string(request.ItemType),
		ItemID:            request.ItemID,
		Operation:         string(request.Operation),
		Data:              request.Data,
		Status:            string(request.Status),
		StatusReason:      request.StatusReason,
		RequesterID:       request.RequesterID,
		RequesterUsername: h.username(c, request.RequesterID),
		Requirement:       h.approval.RequirementFor(request),
		CreatedAt:         request.CreatedAt,
		UpdatedAt:         request.UpdatedAt,
	}
}

func (h *APIHandlers) requestResponses(c fiber.Ctx, requests []*models.ApprovalRequest) []ApprovalRequestResponse {
	response := make([]ApprovalRequestResponse, 0, len(requests))
	for _, request := range requests {
		response = append(response, h.requestResponse(c, request))
	}

	return response
}

// username resolves a display name; unknown users render without one.
func (h *APIHandlers) username(c fiber.Ctx, userID string) string {
	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return ""
	}

	return user.Username
}
