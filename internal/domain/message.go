package domain

// Attachment is a named binary blob sent alongside a message.
type Attachment struct {
	Name string
	Data []byte
}

// OutboundMessage is what a submission sends to the chat endpoint.
// At least one of Text or File must be non-empty.
type OutboundMessage struct {
	SessionID string
	Text      string
	File      *Attachment
	Language  Locale
	Intent    string
}

// HasContent reports whether the message carries text or a file.
func (m OutboundMessage) HasContent() bool {
	return m.Text != "" || m.File != nil
}

// InboundReply is the JSON body returned by the chat endpoint.
// Only Reply and SessionID are consumed by the widget; the rest is passed
// through to the host untouched.
type InboundReply struct {
	Reply            string `json:"reply,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	CRMID            string `json:"crm_id,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	IsRTL            bool   `json:"is_rtl,omitempty"`
	Error            string `json:"error,omitempty"`
}
