// Package backend is the client of the MiSight REST backend
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aethra/misight/internal/config"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/schema"
	"github.com/aethra/misight/internal/security"
)

// maxErrorBody bounds how much of a failed response is read for its message
const maxErrorBody = 4 << 10

var pathParamRegex = regexp.MustCompile(`\{(\w+)\}`)

// Client makes calls to the backend. It never retries; a failed call is reported once.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	serviceToken string
	log          logger.Logger
	metrics      *Metrics
}

// Request represents a request to be made
type Request struct {
	Method     string
	Path       string
	PathParams map[string]string
	Query      url.Values
	Body       interface{}
	// Resource labels metrics and logs; defaults to the first path segment
	Resource string
}

// Response represents the response from the backend
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// NewClient creates a client for cfg.BaseURL + "/api"
func NewClient(cfg config.BackendConfig, log logger.Logger, metrics *Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/") + "/api",
		httpClient:   &http.Client{Timeout: timeout},
		serviceToken: cfg.Token,
		log:          log,
		metrics:      metrics,
	}
}

// Do executes req. Any status outside 2xx becomes an *errors.UpstreamError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resource := req.Resource
	if resource == "" {
		resource = firstSegment(req.Path)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.metrics.observe(req.Method, resource, 0, duration)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warnw("backend call failed", "method", req.Method, "path", httpReq.URL.Path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, httpReq.URL.Path, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(req.Method, resource, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Infow("backend call rejected",
			"method", req.Method, "path", httpReq.URL.Path, "status", resp.StatusCode, "duration", duration)
		return nil, apperrors.NewUpstreamError(req.Method, httpReq.URL.Path, resp.StatusCode, errorMessage(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.log.Debugw("backend call", "method", req.Method, "path", httpReq.URL.Path, "status", resp.StatusCode, "duration", duration)

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

// buildRequest constructs the HTTP request
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	fullURL := c.baseURL + resolvePath(req.Path, req.PathParams)
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	if c.serviceToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}
	if actor, ok := ActorFrom(ctx); ok {
		httpReq.Header.Set(ActorHeader, actor)
	}
	return httpReq, nil
}

// resolvePath replaces path parameters like /mines/{id} with actual values
func resolvePath(path string, params map[string]string) string {
	result := path
	for _, match := range pathParamRegex.FindAllStringSubmatch(path, -1) {
		if value, exists := params[match[1]]; exists {
			result = strings.Replace(result, match[0], url.PathEscape(value), 1)
		}
	}
	return result
}

func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// errorMessage pulls a readable message out of an error body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") || len(text) > 200 {
		return ""
	}
	return text
}

// List fetches GET /{resource}
func (c *Client) List(ctx context.Context, resource string) (schema.Collection, error) {
	if err := security.ValidateSegment(resource); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/" + resource})
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp.Body)
}

// Get fetches GET /{resource}/{id}
func (c *Client) Get(ctx context.Context, resource, id string) (schema.Record, error) {
	if err := validate(resource, id); err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, &Request{
		Method:     http.MethodGet,
		Path:       "/" + resource + "/{id}",
		PathParams: map[string]string{"id": id},
	})
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body)
}

// ListByRelation fetches GET /{resource}/{relation}/{id}, for example /mines/province/3
func (c *Client) ListByRelation(ctx context.Context, resource, relation, id string) (schema.Collection, error) {
	if err := validate(resource, id); err != nil {
		return nil, err
	}
	if err := security.ValidateSegment(relation); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	resp, err := c.Do(ctx, &Request{
		Method:     http.MethodGet,
		Path:       "/" + resource + "/" + relation + "/{id}",
		PathParams: map[string]string{"id": id},
		Resource:   resource,
	})
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp.Body)
}

// ListByDateRange fetches GET /{resource}/date-range?start=&end= with ISO dates
func (c *Client) ListByDateRange(ctx context.Context, resource, start, end string) (schema.Collection, error) {
	if err := security.ValidateSegment(resource); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if _, _, err := security.ValidateDateRange(start, end); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/" + resource + "/date-range",
		Query:  url.Values{"start": {start}, "end": {end}},
	})
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp.Body)
}

// Create sends POST /{resource} and returns the stored record when the backend echoes it
func (c *Client) Create(ctx context.Context, resource string, values schema.Values) (schema.Record, error) {
	if err := security.ValidateSegment(resource); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: "/" + resource, Body: values})
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body)
}

// Update sends PUT /{resource}/{id}
func (c *Client) Update(ctx context.Context, resource, id string, values schema.Values) (schema.Record, error) {
	if err := validate(resource, id); err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, &Request{
		Method:     http.MethodPut,
		Path:       "/" + resource + "/{id}",
		PathParams: map[string]string{"id": id},
		Body:       values,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body)
}

// Delete sends DELETE /{resource}/{id}
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	if err := validate(resource, id); err != nil {
		return err
	}
	_, err := c.Do(ctx, &Request{
		Method:     http.MethodDelete,
		Path:       "/" + resource + "/{id}",
		PathParams: map[string]string{"id": id},
	})
	return err
}

func validate(resource, id string) error {
	if err := security.ValidateSegment(resource); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	if err := security.ValidateRecordID(id); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	return nil
}

// decodeCollection accepts a bare JSON array or an object wrapping it in "data" or "content"
func decodeCollection(body []byte) (schema.Collection, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return schema.Collection{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := dec.Decode(&wrapper); err != nil {
			return nil, fmt.Errorf("decode collection: %w", err)
		}
		for _, key := range []string{"data", "content", "items"} {
			if raw, ok := wrapper[key]; ok {
				return decodeCollection(raw)
			}
		}
		return nil, fmt.Errorf("decode collection: object without data")
	}

	var records []schema.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if records == nil {
		records = []schema.Record{}
	}
	return schema.Collection(records), nil
}

func decodeRecord(body []byte) (schema.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var rec schema.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
