package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/contract"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the HTTP client. The default client has no
// timeout; callers bound requests through the context.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithEndpoints replaces the endpoint table.
func WithEndpoints(endpoints contract.Endpoints) Option {
	return func(d *Dispatcher) {
		if len(endpoints) > 0 {
			d.endpoints = endpoints
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher issues one request per call and turns the exchange into a
// Result. It never retries and never touches the view.
type Dispatcher struct {
	baseURL   *url.URL
	client    *http.Client
	endpoints contract.Endpoints
	logger    *log.Logger
}

// New builds a dispatcher for the backend at baseURL. Without WithEndpoints
// the table comes from the embedded contract.
func New(baseURL string, options ...Option) (*Dispatcher, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("dispatch: base URL is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("dispatch: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("dispatch: base URL %q must be absolute", baseURL)
	}

	d := &Dispatcher{
		baseURL: parsed,
		client:  &http.Client{},
		logger:  log.Default().WithComponent("dispatch"),
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	if d.endpoints == nil {
		eps, err := contract.Default()
		if err != nil {
			d.logger.Warn("embedded contract unavailable, using static endpoints", log.Error(err))
			eps = contract.Static()
		}
		d.endpoints = eps
	}
	return d, nil
}

// Endpoints returns the resolved endpoint table.
func (d *Dispatcher) Endpoints() contract.Endpoints {
	return d.endpoints
}

// PostJSON sends payload as a JSON body to the operation's endpoint.
func (d *Dispatcher) PostJSON(ctx context.Context, operationID string, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return d.fail(operationID, fmt.Errorf("dispatch: encode payload: %w", err))
	}
	return d.do(ctx, operationID, bytes.NewReader(body), "application/json")
}

// Get issues a bodiless request to the operation's endpoint.
func (d *Dispatcher) Get(ctx context.Context, operationID string) Result {
	return d.do(ctx, operationID, nil, "")
}

// Multipart describes a form upload. File may be nil, in which case only
// the plain fields are sent and the backend decides how to answer.
type Multipart struct {
	FileField string
	FileName  string
	File      io.Reader
	Fields    map[string]string
}

// PostMultipart sends a multipart/form-data body. The content type (and its
// boundary) is set by the encoder.
func (d *Dispatcher) PostMultipart(ctx context.Context, operationID string, form Multipart) Result {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(form.Fields))
	for k := range form.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, form.Fields[k]); err != nil {
			return d.fail(operationID, fmt.Errorf("dispatch: write field %q: %w", k, err))
		}
	}

	if form.File != nil {
		field := form.FileField
		if field == "" {
			field = "file"
		}
		part, err := writer.CreateFormFile(field, form.FileName)
		if err != nil {
			return d.fail(operationID, fmt.Errorf("dispatch: create file part: %w", err))
		}
		if _, err := io.Copy(part, form.File); err != nil {
			return d.fail(operationID, fmt.Errorf("dispatch: copy file part: %w", err))
		}
	}
	if err := writer.Close(); err != nil {
		return d.fail(operationID, fmt.Errorf("dispatch: close multipart body: %w", err))
	}
	return d.do(ctx, operationID, &buf, writer.FormDataContentType())
}

func (d *Dispatcher) do(ctx context.Context, operationID string, body io.Reader, contentType string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	ep, err := d.endpoints.Lookup(operationID)
	if err != nil {
		return d.fail(operationID, err)
	}

	target := d.baseURL.JoinPath(ep.Path)
	req, err := http.NewRequestWithContext(ctx, ep.Method, target.String(), body)
	if err != nil {
		return d.fail(operationID, fmt.Errorf("dispatch: build request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return d.fail(operationID, fmt.Errorf("dispatch: %s %s: %w", ep.Method, ep.Path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return d.fail(operationID, fmt.Errorf("dispatch: read response: %w", err))
	}

	res := Interpret(resp.StatusCode, raw)
	switch res.Kind {
	case KindTransportError:
		d.logger.Error("backend returned an unreadable body",
			log.String("operation", operationID),
			log.Int("status", resp.StatusCode),
			log.Error(res.Err),
		)
	case KindDomainError:
		d.logger.Info("backend rejected request",
			log.String("operation", operationID),
			log.Int("status", resp.StatusCode),
			log.String("reason", res.Reason),
		)
	default:
		d.logger.Debug("backend request succeeded",
			log.String("operation", operationID),
			log.Int("status", resp.StatusCode),
		)
	}
	return res
}

func (d *Dispatcher) fail(operationID string, err error) Result {
	d.logger.Error("backend request failed", log.String("operation", operationID), log.Error(err))
	return TransportError(err)
}
