package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-bridge/internal/api/dto"
	"github.com/spec-kit/support-bridge/internal/service"
)

// TranscriptsHandler serves stored transcripts.
type TranscriptsHandler struct {
	tickets *service.TicketService
}

// NewTranscriptsHandler constructs handler.
func NewTranscriptsHandler(tickets *service.TicketService) *TranscriptsHandler {
	return &TranscriptsHandler{tickets: tickets}
}

// Get handles GET /tickets/transcripts/:ticketId. With ?format=html the raw
// page is served directly for viewing in a browser.
func (h *TranscriptsHandler) Get(c *fiber.Ctx) error {
	doc, err := h.tickets.GetTranscript(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}

	if c.Query("format") == "html" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(doc.HTML)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.FromTranscript(doc),
	})
}
