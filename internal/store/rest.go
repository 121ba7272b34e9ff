package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// RESTConfig configures a PostgREST (Supabase) compatible remote.
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// RESTBackend talks to a PostgREST endpoint: one resource per collection under /rest/v1.
// Every call goes through a circuit breaker so an unreachable remote fails fast.
type RESTBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewRESTBackend(cfg RESTConfig) *RESTBackend {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
	})

	return &RESTBackend{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  cfg.Client,
		circuit: cb,
	}
}

func (r *RESTBackend) Name() string {
	return "rest"
}

func (r *RESTBackend) List(ctx context.Context, kind Kind) ([]Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc,id.asc")
	return r.call(ctx, http.MethodGet, kind, q, nil)
}

// Insert posts the row as an upsert on the primary key.
func (r *RESTBackend) Insert(ctx context.Context, kind Kind, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}
	body, err := json.Marshal([]json.RawMessage{rec.Data})
	if err != nil {
		return Record{}, err
	}
	recs, err := r.call(ctx, http.MethodPost, kind, nil, body)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return rec, nil
	}
	return recs[0], nil
}

// Update sends only the changed columns; PostgREST returns the affected rows.
func (r *RESTBackend) Update(ctx context.Context, kind Kind, id string, fields Fields) (Record, error) {
	patch := make(Fields, len(fields))
	for k, v := range fields {
		if k != "id" {
			patch[k] = v
		}
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return Record{}, err
	}
	recs, err := r.call(ctx, http.MethodPatch, kind, idFilter(id), body)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[0], nil
}

func (r *RESTBackend) Delete(ctx context.Context, kind Kind, id string) error {
	recs, err := r.call(ctx, http.MethodDelete, kind, idFilter(id), nil)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return ErrNotFound
	}
	return nil
}

func idFilter(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}

// call executes one request through the circuit breaker and decodes the returned rows.
func (r *RESTBackend) call(ctx context.Context, method string, kind Kind, query url.Values, body []byte) ([]Record, error) {
	if r.client == nil {
		return nil, errNoHTTPClient
	}

	u := fmt.Sprintf("%s/rest/v1/%s", r.baseURL, kind)
	if len(query) > 0 {
		u = fmt.Sprintf("%s?%s", u, query.Encode())
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch method {
	case http.MethodPost:
		req.Header.Set("Prefer", "return=representation,resolution=merge-duplicates")
	case http.MethodPatch, http.MethodDelete:
		req.Header.Set("Prefer", "return=representation")
	}

	result, err := r.circuit.Execute(func() (interface{}, error) {
		resp, execErr := r.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		return raw, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	raw, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromDocument(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
