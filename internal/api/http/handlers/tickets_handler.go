package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-bridge/internal/api/dto"
	"github.com/spec-kit/support-bridge/internal/domain"
	"github.com/spec-kit/support-bridge/internal/service"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTicket(ticket),
	})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	input := service.ListTicketsInput{
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if ref := c.Query("requesterRef"); ref != "" {
		input.RequesterRef = &ref
	}

	tickets, err := h.tickets.List(c.UserContext(), input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTickets(tickets),
	})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTicket(ticket),
	})
}

// ListMessages handles GET /tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.tickets.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromMessages(messages),
	})
}

// AppendMessage handles POST /messages.
func (h *TicketsHandler) AppendMessage(c *fiber.Ctx) error {
	var req dto.AppendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.TicketID == "" {
		return fiber.NewError(http.StatusBadRequest, "ticketId required")
	}

	role := domain.SenderRole(req.SenderRole)
	if req.SenderRole == "" {
		role = domain.SenderRoleRequester
	}

	msg, err := h.tickets.AppendMessage(c.UserContext(), service.AppendMessageInput{
		TicketID:    req.TicketID,
		SenderRole:  role,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromMessage(msg),
	})
}

// UpdateStatus handles PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.UpdateStatus(c.UserContext(), c.Params("id"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTicket(ticket),
	})
}

// Close handles POST /tickets/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.TicketID == "" {
		return fiber.NewError(http.StatusBadRequest, "ticketId required")
	}

	ticket, err := h.tickets.Close(c.UserContext(), req.TicketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTicket(ticket),
	})
}

// Archive handles POST /tickets/:id/archive.
func (h *TicketsHandler) Archive(c *fiber.Ctx) error {
	if err := h.tickets.Archive(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"archived": true},
	})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	doc, err := h.tickets.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"deleted":       true,
			"transcriptUrl": "/tickets/transcripts/" + doc.TicketID,
		},
	})
}

// Purge handles DELETE /tickets/:id/purge.
func (h *TicketsHandler) Purge(c *fiber.Ctx) error {
	if err := h.tickets.Purge(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"purged": true},
	})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
