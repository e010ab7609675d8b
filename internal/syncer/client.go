package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taxtrack/internal/apperr"
	"taxtrack/internal/model"
	"taxtrack/internal/service"

	"github.com/google/uuid"
)

// Client talks to the tax tracker API and implements Fetcher and Updater.
// HTTP failures are mapped onto the apperr taxonomy: transport errors become
// NetworkError, 429 becomes RateLimitError and 5xx becomes
// AmbiguousServerError, so the coordinator can pick the right recovery.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope mirrors pkg/response.Response with a raw data payload.
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body interface{}, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &apperr.RateLimitError{Op: op}
	case resp.StatusCode >= 500:
		return &apperr.AmbiguousServerError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server returned %s", resp.Status),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", op, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decoding payload: %w", op, err)
		}
	}
	return nil
}

func (c *Client) FetchRecord(ctx context.Context, key model.RecordKey) (service.TaxRecordResponse, error) {
	var rec service.TaxRecordResponse
	path := fmt.Sprintf("/api/tax-records/key/%s/%d/%d", url.PathEscape(key.Build), key.TaxYear, key.TaxMonth)
	if err := c.do(ctx, "fetch record", http.MethodGet, path, nil, nil, &rec); err != nil {
		return service.TaxRecordResponse{}, err
	}
	return rec, nil
}

// listPayload matches the list handler's data object.
type listPayload struct {
	Records []service.TaxRecordResponse `json:"records"`
	Total   int64                       `json:"total"`
}

func (c *Client) FetchList(ctx context.Context, group ListGroupSpec) (ListEntry, error) {
	query := url.Values{}
	f := group.Filter
	if f.Build != "" {
		query.Set("build", f.Build)
	}
	if f.TaxYear != 0 {
		query.Set("tax_year", strconv.Itoa(f.TaxYear))
	}
	if f.TaxMonth != 0 {
		query.Set("tax_month", strconv.Itoa(f.TaxMonth))
	}
	if f.Obligation != "" {
		query.Set("obligation", string(f.Obligation))
	}
	if f.Status != "" {
		query.Set("status", string(f.Status))
	}
	if f.Mine {
		query.Set("mine", "true")
	}
	if f.Page != 0 {
		query.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit != 0 {
		query.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Sort != "" {
		query.Set("sort", f.Sort)
	}

	var payload listPayload
	if err := c.do(ctx, "fetch list "+group.ID, http.MethodGet, "/api/tax-records", query, nil, &payload); err != nil {
		return ListEntry{}, err
	}
	return ListEntry{Records: payload.Records, Total: payload.Total}, nil
}

func (c *Client) FetchSummary(ctx context.Context, group SummaryGroupSpec) (service.SummaryResponse, error) {
	query := url.Values{}
	query.Set("tax_year", strconv.Itoa(group.TaxYear))
	query.Set("tax_month", strconv.Itoa(group.TaxMonth))

	var sum service.SummaryResponse
	if err := c.do(ctx, "fetch summary "+group.ID, http.MethodGet, "/api/tax-summary", query, nil, &sum); err != nil {
		return service.SummaryResponse{}, err
	}
	return sum, nil
}

func (c *Client) UpdateRecord(ctx context.Context, id uuid.UUID, req service.SaveRecordRequest) (service.TaxRecordResponse, error) {
	var rec service.TaxRecordResponse
	path := "/api/tax-records/" + id.String()
	if err := c.do(ctx, "update record", http.MethodPatch, path, nil, req, &rec); err != nil {
		return service.TaxRecordResponse{}, err
	}
	return rec, nil
}
