package stubserver

import (
	"strings"
	"unicode"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/intent"
)

// Canned replies. They are msgids in the widget catalog.
const (
	MsgEcho        = "You said: %s"
	MsgFile        = "Thanks, I received %s (%d bytes)."
	MsgTicket      = "I've opened a support ticket for you. An agent will follow up shortly."
	MsgInspiration = "Here are a few ideas to get you started."
	MsgFAQ         = "Most questions are about orders, shipping and returns. What would you like to know?"
	MsgComplaint   = "I'm sorry to hear that. Please describe what went wrong."
	MsgOrderStatus = "Please share your order number and I'll check on it."
)

var intentReplies = map[string]string{
	intent.Inspiration: MsgInspiration,
	intent.FAQ:         MsgFAQ,
	intent.Complaint:   MsgComplaint,
	intent.OrderStatus: MsgOrderStatus,
	intent.Support:     MsgTicket,
}

// supportKeywords route a free-text message to ticketing.
var supportKeywords = map[string]struct{}{
	"help":    {},
	"support": {},
	"problem": {},
	"issue":   {},
	"مساعدة":  {},
	"مشكلة":   {},
	"دعم":     {},
}

func (s *Server) reply(req chatRequest, l domain.Locale) string {
	if req.Intent != nil {
		if msgid, ok := intentReplies[strings.ToLower(strings.TrimSpace(*req.Intent))]; ok {
			return s.tr.T(l, msgid)
		}
	}
	if req.fileName != "" {
		return s.tr.Tf(l, MsgFile, req.fileName, req.fileSize)
	}
	if wantsSupport(req.Message) {
		return s.tr.T(l, MsgTicket)
	}
	return s.tr.Tf(l, MsgEcho, req.Message)
}

func wantsSupport(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if _, ok := supportKeywords[w]; ok {
			return true
		}
	}
	return false
}
