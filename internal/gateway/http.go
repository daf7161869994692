package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/model"
)

const requestIDHeader = "X-Request-ID"

// HTTP is the Gateway binding for the backend's HTTP API.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// HTTPOption configures an HTTP gateway.
type HTTPOption func(*HTTP)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTP) { g.client = c }
}

// NewHTTP creates a gateway for the backend at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	g := &HTTP{baseURL: strings.TrimRight(baseURL, "/"), client: http.DefaultClient}
	for _, o := range opts {
		o(g)
	}
	return g
}

var _ Gateway = (*HTTP)(nil)

func (g *HTTP) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accts []model.Account
	if err := g.do(ctx, OpListAccounts, http.MethodGet, "/api/accounts", nil, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

func (g *HTTP) ListOperations(ctx context.Context, accountID string) ([]model.Operation, error) {
	var ops []model.Operation
	if err := g.do(ctx, OpListOperations, http.MethodGet, operationsPath(accountID), nil, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (g *HTTP) GetOperation(ctx context.Context, accountID, operationID string) (model.Operation, error) {
	var op model.Operation
	if err := g.do(ctx, OpGetOperation, http.MethodGet, operationPath(accountID, operationID), nil, &op); err != nil {
		return model.Operation{}, err
	}
	return op, nil
}

func (g *HTTP) AddOperation(ctx context.Context, accountID string, d model.OperationDraft) error {
	return g.do(ctx, OpAddOperation, http.MethodPost, operationsPath(accountID), d, nil)
}

func (g *HTTP) UpdateOperation(ctx context.Context, accountID string, op model.Operation) error {
	return g.do(ctx, OpUpdateOperation, http.MethodPut, operationPath(accountID, op.ID), op, nil)
}

// ImportFiles accepts only the {"operations": [...]} response shape.
func (g *HTTP) ImportFiles(ctx context.Context, paths []string) ([]model.CandidateOperation, error) {
	var resp struct {
		Operations json.RawMessage `json:"operations"`
	}
	body := struct {
		Paths []string `json:"paths"`
	}{Paths: paths}
	if err := g.do(ctx, OpImportFiles, http.MethodPost, "/api/import", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Operations) == 0 {
		return nil, &TransportError{Op: OpImportFiles, Err: errors.New("malformed response: missing operations")}
	}

	cands := []model.CandidateOperation{}
	if err := json.Unmarshal(resp.Operations, &cands); err != nil {
		return nil, &TransportError{Op: OpImportFiles, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if cands == nil {
		cands = []model.CandidateOperation{}
	}
	return cands, nil
}

func (g *HTTP) ListReferences(ctx context.Context) (model.ReferenceCatalog, error) {
	var cat model.ReferenceCatalog
	if err := g.do(ctx, OpListReferences, http.MethodGet, "/api/references", nil, &cat); err != nil {
		return model.ReferenceCatalog{}, err
	}
	return cat, nil
}

func operationsPath(accountID string) string {
	return "/api/accounts/" + url.PathEscape(accountID) + "/operations"
}

func operationPath(accountID, operationID string) string {
	return operationsPath(accountID) + "/" + url.PathEscape(operationID)
}

// do sends in as JSON and decodes a 2xx reply into out. Any other status
// is a ValidationError carrying the response body.
func (g *HTTP) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ValidationError{Op: op, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
