// Package compose builds outbound chat requests in either JSON or multipart form.
package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/session"
)

// ErrEmpty is returned when a message has neither text nor a file.
var ErrEmpty = errors.New("message has no text and no file")

// Input is everything a single request is built from.
type Input struct {
	Endpoint  string
	AuthToken string
	Message   domain.OutboundMessage
}

// Request is a fully materialized outbound request. The body is kept as bytes
// so the same request can be replayed on every retry attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// jsonBody is the JSON encoding of an outbound message.
type jsonBody struct {
	SessionID string  `json:"session_id"`
	Message   string  `json:"message"`
	Language  string  `json:"language"`
	Intent    *string `json:"intent"`
}

// Build encodes in as multipart when a file is attached and as JSON otherwise.
// The session and auth headers are attached the same way for both encodings.
// Build never mutates its input.
func Build(in Input) (*Request, error) {
	msg := in.Message
	if !msg.HasContent() {
		return nil, ErrEmpty
	}
	if msg.SessionID == "" {
		return nil, errors.New("session id cannot be empty")
	}
	if in.Endpoint == "" {
		return nil, errors.New("endpoint cannot be empty")
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	if msg.File != nil {
		body, contentType, err = buildMultipart(msg)
	} else {
		body, contentType, err = buildJSON(msg)
	}
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set("Content-Type", contentType)
	header.Set("Accept", "application/json")
	header.Set(session.HeaderName, msg.SessionID)
	if in.AuthToken != "" {
		header.Set("Authorization", "Bearer "+in.AuthToken)
	}

	return &Request{
		Method: http.MethodPost,
		URL:    in.Endpoint,
		Header: header,
		Body:   body,
	}, nil
}

func buildJSON(msg domain.OutboundMessage) ([]byte, string, error) {
	payload := jsonBody{
		SessionID: msg.SessionID,
		Message:   msg.Text,
		Language:  string(msg.Language),
	}
	if msg.Intent != "" {
		intent := msg.Intent
		payload.Intent = &intent
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return data, "application/json", nil
}

func buildMultipart(msg domain.OutboundMessage) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", msg.File.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(msg.File.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	fields := [][2]string{
		{"session_id", msg.SessionID},
		{"message", msg.Text},
		{"language", string(msg.Language)},
	}
	if msg.Intent != "" {
		fields = append(fields, [2]string{"intent", msg.Intent})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", f[0], err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// HTTPRequest returns a fresh *http.Request for one attempt. Headers are
// copied so attempts never share mutable state.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header = r.Header.Clone()
	return req, nil
}

// IsMultipart reports whether the body is multipart encoded.
func (r *Request) IsMultipart() bool {
	return r.Header.Get("Content-Type") != "application/json"
}
