// Package auth resolves the bearer token attached to chat requests.
//
// The token comes from the host page first, a <meta name="chat-auth-token">
// tag, and then from the process-wide value (CHAT_AUTH_TOKEN). It is resolved
// once at startup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// MetaName is the name attribute of the host page's token meta tag.
const MetaName = "chat-auth-token"

// maxPageSize caps how much of a host page is read.
const maxPageSize = 2 << 20 // 2MB

// Sources are the places a token may come from, in precedence order.
type Sources struct {
	// Page is the host page HTML. May be nil.
	Page io.Reader
	// Global is the process-wide fallback value.
	Global string
}

// Resolve returns the first non-empty token from src, or "" when none is
// available. A page that fails to parse is treated as carrying no token.
func Resolve(src Sources) string {
	if src.Page != nil {
		if tok, err := MetaToken(src.Page); err == nil && tok != "" {
			return tok
		}
	}
	return strings.TrimSpace(src.Global)
}

// MetaToken scans r for the token meta tag and returns its content.
// It returns "" with a nil error when the tag is missing.
func MetaToken(r io.Reader) (string, error) {
	z := html.NewTokenizer(io.LimitReader(r, maxPageSize))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", nil
			}
			return "", fmt.Errorf("parse host page: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.EqualFold(name, MetaName) {
				return strings.TrimSpace(content), nil
			}
		}
	}
}

// LoadPage opens the host page at location, which is either an http(s) URL
// or a local file path. The caller closes the returned reader.
func LoadPage(ctx context.Context, client *http.Client, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open host page: %w", err)
		}
		return f, nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create host page request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch host page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch host page: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
