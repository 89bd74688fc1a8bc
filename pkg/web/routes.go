package web

import "github.com/gofiber/fiber/v3"

// Register mounts every API route under router.
func (h *APIHandlers) Register(router fiber.Router) {
	api := router.Group("/api")

	r := api.Group("/approval-requests")
	r.Post("/", h.CreateApprovalRequest)
	r.Get("/by-requester/:userId", h.GetRequestsByRequester)
	r.Get("/pending-for-approver/:userId", h.GetPendingForApprover)
	r.Get("/:id", h.GetApprovalRequest)
	r.Get("/:id/records", h.GetApprovalRecords)
	r.Get("/:id/diff", h.GetApprovalDiff)
	r.Post("/:id/respond", h.RespondToRequest)
	r.Post("/:id/withdraw", h.WithdrawRequest)

	api.Post("/approval-check", h.CheckApproval)
	api.Get("/rules", h.GetRules)

	t := api.Group("/todos")
	t.Get("/", h.ListTodos)
	t.Post("/", h.CreateTodo)
	t.Get("/:id", h.GetTodo)
	t.Put("/:id", h.UpdateTodo)
	t.Delete("/:id", h.DeleteTodo)

	i := api.Group("/invoices")
	i.Get("/", h.ListInvoices)
	i.Post("/", h.CreateInvoice)
	i.Get("/:id", h.GetInvoice)
	i.Put("/:id", h.UpdateInvoice)
	i.Delete("/:id", h.DeleteInvoice)

	u := api.Group("/users")
	u.Get("/", h.ListUsers)
	u.Post("/", h.CreateUser)
	u.Get("/:id", h.GetUser)

	router.Get("/health", h.HealthCheck)
}
