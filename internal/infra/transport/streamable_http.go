package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"dcl/internal/domain"
)

// NewStreamableHTTPTransport connects to a remote MCP endpoint, injecting the
// configured headers into every request.
func NewStreamableHTTPTransport(spec domain.ServerSpec) (*mcp.StreamableClientTransport, error) {
	if spec.HTTP == nil {
		return nil, errors.New("streamable http config is required for " + spec.Name)
	}
	endpoint := strings.TrimSpace(spec.HTTP.Endpoint)
	if endpoint == "" {
		return nil, errors.New("streamable http endpoint is required")
	}

	headerTransport, err := buildStreamableHTTPTransport(spec)
	if err != nil {
		return nil, err
	}

	maxRetries := spec.HTTP.MaxRetries
	if maxRetries == 0 {
		maxRetries = domain.DefaultStreamableHTTPMaxRetries
	}
	return &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Transport: headerTransport},
		MaxRetries: maxRetries,
	}, nil
}

func buildStreamableHTTPTransport(spec domain.ServerSpec) (http.RoundTripper, error) {
	headers := http.Header{}
	if spec.ProtocolVersion != "" {
		headers.Set("Mcp-Protocol-Version", spec.ProtocolVersion)
	}
	for key, value := range spec.HTTP.Headers {
		name := http.CanonicalHeaderKey(strings.TrimSpace(key))
		if name == "" {
			return nil, errors.New("http headers contain empty key")
		}
		headers.Set(name, value)
	}

	base := http.DefaultTransport
	if base == nil {
		return nil, errors.New("default http transport is nil")
	}

	return &headerRoundTripper{
		base:    base,
		headers: headers,
	}, nil
}

type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, values := range h.headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return h.base.RoundTrip(req)
}
