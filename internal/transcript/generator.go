package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/spec-kit/support-bridge/internal/domain"
)

// Document is a rendered transcript. Hash is derived from the conversation
// content alone, so re-rendering the same log yields the same hash.
type Document struct {
	TicketID    string    `json:"ticket_id"`
	Hash        string    `json:"hash"`
	HTML        string    `json:"html"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generate renders the full conversation for a ticket as a standalone HTML
// page. The output is a pure function of the ticket and its messages; no
// clock is read during rendering, which keeps repeated generation
// byte-identical for an unchanged log.
func Generate(ticket *domain.Ticket, messages []domain.Message) *Document {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Transcript %s</title>\n", html.EscapeString(ticket.DisplayCode))
	b.WriteString("<style>\n")
	b.WriteString("body{font-family:Arial,sans-serif;background:#f4f4f4;margin:0;padding:20px}\n")
	b.WriteString(".header{background:#5865F2;color:#fff;padding:16px;border-radius:8px 8px 0 0}\n")
	b.WriteString(".meta{background:#fff;padding:12px 16px;border-bottom:1px solid #ddd}\n")
	b.WriteString(".messages{background:#fff;padding:16px;border-radius:0 0 8px 8px}\n")
	b.WriteString(".message{margin-bottom:12px;padding:8px;border-left:3px solid #5865F2}\n")
	b.WriteString(".message.agent{border-left-color:#57F287}\n")
	b.WriteString(".sender{font-weight:bold}\n")
	b.WriteString(".timestamp{color:#888;font-size:0.85em;margin-left:8px}\n")
	b.WriteString(".attachment{color:#5865F2;font-size:0.9em}\n")
	b.WriteString("</style>\n</head>\n<body>\n")

	b.WriteString("<div class=\"header\">\n")
	fmt.Fprintf(&b, "<h2>Support Ticket %s</h2>\n", html.EscapeString(ticket.DisplayCode))
	b.WriteString("</div>\n<div class=\"meta\">\n")
	fmt.Fprintf(&b, "<div><strong>Subject:</strong> %s</div>\n", html.EscapeString(ticket.Subject))
	fmt.Fprintf(&b, "<div><strong>Category:</strong> %s</div>\n", html.EscapeString(ticket.Category))
	fmt.Fprintf(&b, "<div><strong>Priority:</strong> %s</div>\n", html.EscapeString(string(ticket.Priority)))
	fmt.Fprintf(&b, "<div><strong>Status:</strong> %s</div>\n", html.EscapeString(string(ticket.Status)))
	fmt.Fprintf(&b, "<div><strong>Opened:</strong> %s</div>\n", ticket.CreatedAt.UTC().Format(time.RFC3339))
	if ticket.GuestEmail != nil {
		fmt.Fprintf(&b, "<div><strong>Email:</strong> %s</div>\n", html.EscapeString(*ticket.GuestEmail))
	}
	b.WriteString("</div>\n<div class=\"messages\">\n")

	for _, msg := range messages {
		cls := "message"
		sender := "Requester"
		if msg.SenderRole == domain.SenderRoleAgent {
			cls = "message agent"
			sender = "Agent"
		}
		fmt.Fprintf(&b, "<div class=\"%s\">\n", cls)
		fmt.Fprintf(&b, "<span class=\"sender\">%s</span><span class=\"timestamp\">%s</span>\n",
			sender, msg.CreatedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "<div>%s</div>\n", html.EscapeString(msg.Content))
		for _, att := range msg.Attachments {
			fmt.Fprintf(&b, "<div class=\"attachment\">📎 %s</div>\n", html.EscapeString(att))
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</div>\n</body>\n</html>\n")

	return &Document{
		TicketID:    ticket.ID,
		Hash:        contentHash(messages),
		HTML:        b.String(),
		GeneratedAt: time.Now().UTC(),
	}
}

// contentHash digests the conversation in log order. Each entry contributes
// its id, sender role, creation time, content and attachments in a canonical
// line encoding, so any change to the log changes the hash.
func contentHash(messages []domain.Message) string {
	h := sha256.New()
	for _, msg := range messages {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s\n",
			msg.ID,
			msg.SenderRole,
			msg.CreatedAt.UTC().Format(time.RFC3339Nano),
			msg.Content,
			strings.Join(msg.Attachments, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}
