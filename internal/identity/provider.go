package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vschac/CSDaily/internal/domain"
)

// ErrUnknownIdentity is returned when the provider has no account for the
// given user id. It wraps domain.ErrAuthorization.
var ErrUnknownIdentity = fmt.Errorf("%w: unknown identity", domain.ErrAuthorization)

// Identity is an account confirmed by the external identity provider.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Provider confirms that a user id corresponds to a real account. The
// provider owns credentials, sessions, and password reset; this client only
// performs server-side lookups and never trusts ids sent by callers.
type Provider interface {
	Lookup(ctx context.Context, uid string) (*Identity, error)
}

// HTTPProvider looks accounts up over the provider's REST API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewHTTPProvider builds a lookup client for the given provider endpoint.
func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup fetches the account for uid. An unknown uid yields
// ErrUnknownIdentity; provider unavailability yields a transport error.
func (p *HTTPProvider) Lookup(ctx context.Context, uid string) (*Identity, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrUnknownIdentity
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v1/accounts/"+url.PathEscape(uid), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: identity lookup: %v", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var id Identity
		if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
			return nil, fmt.Errorf("%w: identity lookup: %v", domain.ErrTransport, err)
		}
		if id.UID == "" {
			id.UID = uid
		}
		return &id, nil
	case http.StatusNotFound:
		return nil, ErrUnknownIdentity
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: identity lookup status %d", domain.ErrAuthorization, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: identity lookup status %d", domain.ErrTransport, resp.StatusCode)
	}
}
