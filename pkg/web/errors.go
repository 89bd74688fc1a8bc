package web

import (
	"errors"

	"github.com/dukex/approvals/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// executionFailedProblem carries the request rolled back to REJECTED.
type executionFailedProblem struct {
	*problems.Problem

	Request *ApprovalRequestResponse `json:"approval_request,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func (h *APIHandlers) handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsExecutionFailed(err):
		problem := executionFailedProblem{
			Problem: problems.NewStatusProblem(422).
				WithInstance(c.Path()).
				WithType("execution_failed").
				WithDetail(err.Error()),
		}

		var execErr *services.ExecutionError
		if errors.As(err, &execErr) && execErr.Request != nil {
			response := h.requestResponse(c, execErr.Request)
			problem.Request = &response
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case services.IsConfiguration(err):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("configuration_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	case services.IsValidation(err):
		return badRequest(c, err.Error())

	case services.IsNotFound(err):
		return notFound(c, err.Error())

	case services.IsConflict(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		return internalError(c, err)
	}
}
