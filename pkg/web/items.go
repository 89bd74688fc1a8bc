package web

import (
	"errors"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/services"
	"github.com/dukex/approvals/pkg/users"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) ListTodos(c fiber.Ctx) error {
	todos, err := h.todos.List(c.Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(todos)
}

func (h *APIHandlers) GetTodo(c fiber.Ctx) error {
	todo, err := h.todos.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(todo)
}

func (h *APIHandlers) CreateTodo(c fiber.Ctx) error {
	return h.submitChange(c, models.ItemTypeTodo, models.OperationCreate)
}

func (h *APIHandlers) UpdateTodo(c fiber.Ctx) error {
	return h.submitChange(c, models.ItemTypeTodo, models.OperationUpdate)
}

func (h *APIHandlers) DeleteTodo(c fiber.Ctx) error {
	return h.submitChange(c, models.ItemTypeTodo, models.OperationDelete)
}

func (h *APIHandlers) ListInvoices(c fiber.Ctx) error {
	invoices, err := h.invoices.List(c.Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(invoices)
}

func (h *APIHandlers) GetInvoice(c fiber.Ctx) error {
	invoice, err := h.invoices.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(invoice)
}

func (h *APIHandlers) CreateInvoice(c fiber.Ctx) error {
	return h.submitChange(c, models.ItemTypeInvoice, models.OperationCreate)
}

func (h *APIHandlers) UpdateInvoice(c fiber.Ctx) error {
	return h.submitChange(c, models.ItemTypeInvoice, models.OperationUpdate)
}

func (h *APIHandlers) DeleteInvoice(c fiber.Ctx) error {
	return h.submitChange(c, models.ItemTypeInvoice, models.OperationDelete)
}

// submitChange answers 202 with the approval request when the change is
// governed, otherwise the applied result.
func (h *APIHandlers) submitChange(c fiber.Ctx, itemType models.ItemType, operation models.Operation) error {
	userID := c.Query("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}

	var data map[string]any

	if operation != models.OperationDelete {
		if err := c.Bind().JSON(&data); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.changes.Submit(c.Context(), services.Change{
		ItemType:  itemType,
		ItemID:    c.Params("id"),
		Operation: operation,
		Data:      data,
		UserID:    userID,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	if result.ApprovalRequired {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"approval_required": true,
			"approval_request":  h.requestResponse(c, result.Request),
			"requirement":       result.Requirement,
		})
	}

	switch operation {
	case models.OperationCreate:
		return c.Status(fiber.StatusCreated).JSON(result.Result)
	case models.OperationDelete:
		return c.SendStatus(fiber.StatusNoContent)
	default:
		return c.JSON(result.Result)
	}
}

func (h *APIHandlers) ListUsers(c fiber.Ctx) error {
	all, err := h.users.List(c.Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(all)
}

func (h *APIHandlers) GetUser(c fiber.Ctx) error {
	user, err := h.users.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(user)
}

func (h *APIHandlers) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.users.Register(c.Context(), req.Username, models.Role(req.Role))
	if err != nil {
		if errors.Is(err, users.ErrInvalidUser) {
			return badRequest(c, err.Error())
		}

		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}
