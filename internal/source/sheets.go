package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ginjaninja78/pipeline-dashboard/internal/config"
)

// googleTokenURL is the OAuth2 token endpoint for service identities.
const googleTokenURL = "https://oauth2.googleapis.com/token"

// =============================================================================
// SERVICE ACCOUNT STRATEGY
// =============================================================================

// ServiceAccount reads the sheet through the Sheets API, authenticated as a
// service identity with a signed JWT.
type ServiceAccount struct {
	// HTTPClient is the base client for token and API requests.
	// Nil uses http.DefaultClient.
	HTTPClient *http.Client

	// TokenURL overrides the OAuth2 token endpoint.
	TokenURL string

	// Options are appended to the API client options.
	Options []option.ClientOption
}

func (s *ServiceAccount) Name() Tag { return TagServiceAccount }

// Preflight requires a document, an identity email and key material containing
// the private key marker.
func (s *ServiceAccount) Preflight(cfg config.SheetConfig) error {
	switch {
	case !cfg.HasDocument():
		return missing(TagServiceAccount, "no spreadsheet id")
	case strings.TrimSpace(cfg.ServiceAccountEmail) == "":
		return missing(TagServiceAccount, "no service account email")
	case !config.LooksLikePrivateKey(cfg.PrivateKey):
		return missing(TagServiceAccount, "private key has no %q marker", config.PrivateKeyMarker)
	}
	return nil
}

func (s *ServiceAccount) Fetch(ctx context.Context, cfg config.SheetConfig) ([][]string, error) {
	tokenURL := s.TokenURL
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}

	jwtConfig := &jwt.Config{
		Email:      strings.TrimSpace(cfg.ServiceAccountEmail),
		PrivateKey: cfg.PrivateKeyPEM(),
		Scopes:     []string{sheets.SpreadsheetsReadonlyScope},
		TokenURL:   tokenURL,
	}

	// The oauth2 package picks the base client for token requests from ctx.
	base := s.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(authCtx, jwtConfig.TokenSource(authCtx))
	client.Timeout = base.Timeout

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, endpointOptions(cfg)...)
	opts = append(opts, s.Options...)

	return readValues(ctx, TagServiceAccount, cfg, opts)
}

// =============================================================================
// API KEY STRATEGY
// =============================================================================

// APIKey reads the sheet through the Sheets API with a bare API key. It only
// works for sheets readable by anyone with the link.
type APIKey struct {
	// HTTPClient is used for API requests. Nil uses the library default.
	HTTPClient *http.Client

	// Options are appended to the API client options.
	Options []option.ClientOption
}

func (a *APIKey) Name() Tag { return TagAPIKey }

// Preflight requires a document and a key that does not look like private key
// material.
func (a *APIKey) Preflight(cfg config.SheetConfig) error {
	switch {
	case !cfg.HasDocument():
		return missing(TagAPIKey, "no spreadsheet id")
	case strings.TrimSpace(cfg.APIKey) == "":
		return missing(TagAPIKey, "no api key")
	case !cfg.HasAPIKey():
		return missing(TagAPIKey, "api key looks like private key material")
	}
	return nil
}

func (a *APIKey) Fetch(ctx context.Context, cfg config.SheetConfig) ([][]string, error) {
	key := strings.TrimSpace(cfg.APIKey)

	var opts []option.ClientOption
	if a.HTTPClient == nil {
		opts = append(opts, option.WithAPIKey(key))
	} else {
		// A caller-supplied client bypasses WithAPIKey, so the key is added
		// by the transport instead.
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Timeout:   a.HTTPClient.Timeout,
			Transport: &keyTransport{key: key, base: a.HTTPClient.Transport},
		}))
	}
	opts = append(opts, endpointOptions(cfg)...)
	opts = append(opts, a.Options...)

	return readValues(ctx, TagAPIKey, cfg, opts)
}

// keyTransport adds the API key query parameter to every request.
type keyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *keyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.key)
	r.URL.RawQuery = q.Encode()

	return base.RoundTrip(r)
}

// =============================================================================
// SHARED
// =============================================================================

func endpointOptions(cfg config.SheetConfig) []option.ClientOption {
	ep := strings.TrimSpace(cfg.SheetsEndpoint)
	if ep == "" {
		return nil
	}
	return []option.ClientOption{option.WithEndpoint(strings.TrimRight(ep, "/") + "/")}
}

func readValues(ctx context.Context, tag Tag, cfg config.SheetConfig, opts []option.ClientOption) ([][]string, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, transport(tag, "failed to create sheets client", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(cfg.SpreadsheetID, cfg.ValueRange()).Context(ctx).Do()
	if err != nil {
		return nil, transport(tag, "failed to read values", err)
	}

	return toGrid(resp.Values), nil
}

// toGrid converts API cell values to strings.
func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		grid = append(grid, cells)
	}
	return grid
}
