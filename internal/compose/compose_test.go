package compose

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/session"
)

const endpoint = "http://chat.test/api/chat"

func baseInput() Input {
	return Input{
		Endpoint: endpoint,
		Message: domain.OutboundMessage{
			SessionID: "web_abc123def456",
			Text:      "hello",
			Language:  domain.LocaleEnglish,
		},
	}
}

func TestBuildJSON(t *testing.T) {
	in := baseInput()
	in.AuthToken = "tok"

	req, err := Build(in)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, endpoint, req.URL)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "web_abc123def456", req.Header.Get(session.HeaderName))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.False(t, req.IsMultipart())
	assert.JSONEq(t, `{"session_id":"web_abc123def456","message":"hello","language":"en","intent":null}`, string(req.Body))
}

func TestBuildJSONWithIntent(t *testing.T) {
	in := baseInput()
	in.Message.Intent = "faq"
	in.Message.Language = domain.LocaleArabic

	req, err := Build(in)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &got))
	assert.Equal(t, "faq", got["intent"])
	assert.Equal(t, "ar", got["language"])
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestBuildMultipart(t *testing.T) {
	in := baseInput()
	in.Message.Text = ""
	in.AuthToken = "tok"
	in.Message.File = &domain.Attachment{Name: "receipt.png", Data: []byte{0x89, 'P', 'N', 'G'}}

	req, err := Build(in)
	require.NoError(t, err)
	assert.True(t, req.IsMultipart())
	assert.Equal(t, "web_abc123def456", req.Header.Get(session.HeaderName))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))

	parts := readParts(t, req)
	assert.Equal(t, string([]byte{0x89, 'P', 'N', 'G'}), parts["file"])
	assert.Equal(t, "web_abc123def456", parts["session_id"])
	assert.Equal(t, "", parts["message"])
	assert.Equal(t, "en", parts["language"])
	_, hasIntent := parts["intent"]
	assert.False(t, hasIntent, "intent must be omitted when unset")
}

func TestBuildMultipartWithIntent(t *testing.T) {
	in := baseInput()
	in.Message.Intent = "complaint"
	in.Message.File = &domain.Attachment{Name: "a.txt", Data: []byte("x")}

	req, err := Build(in)
	require.NoError(t, err)

	parts := readParts(t, req)
	assert.Equal(t, "complaint", parts["intent"])
	assert.Equal(t, "hello", parts["message"])
}

func TestBuildRejectsEmpty(t *testing.T) {
	in := baseInput()
	in.Message.Text = ""

	_, err := Build(in)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBuildRequiresSessionAndEndpoint(t *testing.T) {
	in := baseInput()
	in.Message.SessionID = ""
	_, err := Build(in)
	assert.Error(t, err)

	in = baseInput()
	in.Endpoint = ""
	_, err = Build(in)
	assert.Error(t, err)
}

func TestHTTPRequestIsReplayable(t *testing.T) {
	req, err := Build(baseInput())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		httpReq, err := req.HTTPRequest(context.Background())
		require.NoError(t, err)
		body, err := io.ReadAll(httpReq.Body)
		require.NoError(t, err)
		assert.Equal(t, req.Body, body)
		assert.Equal(t, "web_abc123def456", httpReq.Header.Get(session.HeaderName))

		httpReq.Header.Set(session.HeaderName, "mutated")
	}
	assert.Equal(t, "web_abc123def456", req.Header.Get(session.HeaderName))
}

func readParts(t *testing.T, req *Request) map[string]string {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	httpReq, err := req.HTTPRequest(context.Background())
	require.NoError(t, err)

	parts := make(map[string]string)
	r := multipart.NewReader(httpReq.Body, params["boundary"])
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts[p.FormName()] = string(data)
	}
	return parts
}
