package ports

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xplr/session-gateway/internal/core/domain"
)

// TokenSource hands the stored bearer credential to the backend client and
// lets it drop the credential when the backend rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
	ClearToken(ctx context.Context) error
}

// BackendUser is the subset of the backend's user profile the gateway reads.
type BackendUser struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Balance string `json:"balance"`
	Status  string `json:"status"`
	Role    string `json:"role,omitempty"`
}

// AuthResult is returned by the backend's login and register endpoints.
type AuthResult struct {
	Token string      `json:"token"`
	User  BackendUser `json:"user"`
}

// ForwardRequest is a pass-through call to the backend.
type ForwardRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     []byte
}

// ForwardResponse carries the backend's reply verbatim.
type ForwardResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Backend is the XPLR REST API. Payloads the gateway never inspects are
// returned as raw JSON.
type Backend interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	CurrentUser(ctx context.Context, tokens TokenSource) (*BackendUser, error)
	Cards(ctx context.Context, tokens TokenSource) (json.RawMessage, error)
	Teams(ctx context.Context, tokens TokenSource) (json.RawMessage, error)
	ReferralStats(ctx context.Context, tokens TokenSource) (json.RawMessage, error)
	Grade(ctx context.Context, tokens TokenSource) (json.RawMessage, error)
	Rates(ctx context.Context, tokens TokenSource) (domain.Rates, error)
	Forward(ctx context.Context, tokens TokenSource, req ForwardRequest) (*ForwardResponse, error)
}
