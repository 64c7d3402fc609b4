package driver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	requestTimeout      = 15 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConns        = 20
	tlsHandshakeTimeout = 5 * time.Second
)

// TokenSource yields the current bearer token, or "" when no credential is
// present. The session gate satisfies this.
type TokenSource interface {
	Token() string
}

// BearerTransport injects the Authorization header from a TokenSource and
// stamps every request with a correlation id. The token is read per request,
// not captured at construction, so a login or logout between calls is always
// reflected on the next request.
type BearerTransport struct {
	Source TokenSource
	Base   http.RoundTripper
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.Source != nil {
		if token := t.Source.Token(); token != "" {
			clone.Header.Set("Authorization", "Bearer "+token)
		}
	}
	clone.Header.Set("X-Request-ID", uuid.NewString())
	if clone.Header.Get("Content-Type") == "" && clone.Body != nil {
		clone.Header.Set("Content-Type", "application/json")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// NewHTTPClient builds the client shared by the cart, catalog, and auth
// repositories.
func NewHTTPClient(source TokenSource) *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &BearerTransport{
			Source: source,
			Base: &http.Transport{
				MaxIdleConns:        maxIdleConns,
				IdleConnTimeout:     idleConnTimeout,
				TLSHandshakeTimeout: tlsHandshakeTimeout,
			},
		},
	}
}
