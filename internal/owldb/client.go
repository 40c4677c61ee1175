package owldb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// eventIDHeader carries the (nonce, actor) envelope of a locally issued
// mutation. The store echoes it verbatim as the id of the matching stream
// delivery.
const eventIDHeader = "Event-ID"

// APIError represents a non-2xx response from the document store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("document store error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("document store error (%d)", e.Status)
}

// IsUnauthorized reports whether err is a 401 from the store, which forces
// session teardown in addition to surfacing the error.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

type apiErrorPayload struct {
	Message string `json:"message"`
}

// Client talks to an OwlDB-style document store.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a document-store client.
func NewClient(baseURL string) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: normalized,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

// NormalizeBaseURL normalizes a store base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("store url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("store url must include scheme (https://)")
	}
	return strings.TrimRight(value, "/"), nil
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the currently installed bearer token.
func (c *Client) Token() string { return c.token }

// Login obtains a bearer token for username and installs it on the client.
func (c *Client) Login(ctx context.Context, username string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	req := map[string]string{"username": username}
	if err := c.doJSON(ctx, http.MethodPost, "/auth", nil, types.Envelope{}, req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login succeeded but no token returned")
	}
	c.token = resp.Token
	return resp.Token, nil
}

// Logout releases the client's token with the store.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	err := c.doJSON(ctx, http.MethodDelete, "/auth", nil, types.Envelope{}, nil, nil)
	c.token = ""
	return err
}

// List fetches every document in a collection.
func (c *Client) List(ctx context.Context, collection string) ([]types.Document, error) {
	var docs []types.Document
	if err := c.doJSON(ctx, http.MethodGet, collection, nil, types.Envelope{}, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument fetches a single document by path.
func (c *Client) GetDocument(ctx context.Context, path string) (types.Document, error) {
	var doc types.Document
	if err := c.doJSON(ctx, http.MethodGet, path, nil, types.Envelope{}, nil, &doc); err != nil {
		return types.Document{}, err
	}
	return doc, nil
}

// CreatePost creates a post in the given posts collection and returns the
// created document, fetched back from the uri the store assigned.
func (c *Client) CreatePost(ctx context.Context, collection, msg, parent string, env types.Envelope) (types.Document, error) {
	body := types.Doc{Msg: msg, Parent: parent}
	var resp struct {
		URI string `json:"uri"`
	}
	if err := c.doJSON(ctx, http.MethodPost, collection, nil, env, body, &resp); err != nil {
		return types.Document{}, err
	}
	if resp.URI == "" {
		return types.Document{}, fmt.Errorf("create post: store returned no uri")
	}
	return c.GetDocument(ctx, resp.URI)
}

// Patch applies an ordered list of operations to a post document. A
// rejected patch surfaces as an error carrying the store's message.
func (c *Client) Patch(ctx context.Context, path string, ops []types.PatchOp, env types.Envelope) (types.PatchResult, error) {
	var result types.PatchResult
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, env, ops, &result); err != nil {
		return types.PatchResult{}, err
	}
	if result.PatchFailed {
		return result, fmt.Errorf("patch rejected for %s: %s", path, result.Message)
	}
	return result, nil
}

// ReactionOps builds the patch toggling one user's reaction of a kind.
func ReactionOps(kind types.ReactionKind, user string, previouslyReacted bool) []types.PatchOp {
	op := types.PatchArrayAdd
	if previouslyReacted {
		op = types.PatchArrayRemove
	}
	return []types.PatchOp{{
		Op:    op,
		Path:  "/reactions/" + string(kind),
		Value: user,
	}}
}

// PinOps builds the patch toggling one user's pin on a post.
func PinOps(user string, previouslyPinned bool) []types.PatchOp {
	op := types.PatchArrayAdd
	if previouslyPinned {
		op = types.PatchArrayRemove
	}
	return []types.PatchOp{{
		Op:    op,
		Path:  "/extensions/pins",
		Value: user,
	}}
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, env types.Envelope, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := env.ID(); id != "" {
		req.Header.Set(eventIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
