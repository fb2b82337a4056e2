// Package contract describes the backend boundary. The endpoint table ships
// as an embedded OpenAPI document so the dispatcher and a backend
// implementation can share one source of truth for paths and methods.
package contract

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation identifiers declared by the embedded document.
const (
	OpGenerateTemplate = "generateTemplate"
	OpSimulateConsent  = "simulateConsent"
	OpUploadPolicy     = "uploadPolicy"
	OpConsentAnalytics = "consentAnalytics"
)

// DocumentName is the embedded OpenAPI file.
const DocumentName = "openapi/consent-backend.yaml"

//go:embed openapi/consent-backend.yaml
var embedded embed.FS

// ErrUnknownOperation is returned when an operation id is not in the table.
var ErrUnknownOperation = errors.New("contract: unknown operation")

// Endpoint is one resolved backend operation.
type Endpoint struct {
	OperationID string
	Method      string
	Path        string
}

// Endpoints maps operation ids to endpoints.
type Endpoints map[string]Endpoint

// Lookup resolves an operation id.
func (e Endpoints) Lookup(operationID string) (Endpoint, error) {
	ep, ok := e[operationID]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownOperation, operationID)
	}
	return ep, nil
}

// IDs returns the operation ids in sorted order.
func (e Endpoints) IDs() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Raw returns the embedded document bytes.
func Raw() []byte {
	data, err := embedded.ReadFile(DocumentName)
	if err != nil {
		// The embed directive guarantees the file exists.
		panic(err)
	}
	return data
}

// Parse loads and validates an OpenAPI document and collects every
// operation that declares an operationId.
func Parse(ctx context.Context, data []byte) (Endpoints, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(data) == 0 {
		return nil, errors.New("contract: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("contract: document does not contain any paths")
	}

	out := make(Endpoints)
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || strings.TrimSpace(op.OperationID) == "" {
				continue
			}
			if _, dup := out[op.OperationID]; dup {
				return nil, fmt.Errorf("contract: duplicate operation %q", op.OperationID)
			}
			out[op.OperationID] = Endpoint{
				OperationID: op.OperationID,
				Method:      strings.ToUpper(method),
				Path:        path,
			}
		}
	}
	return out, nil
}

var (
	defaultOnce      sync.Once
	defaultEndpoints Endpoints
	defaultErr       error
)

// Default returns the endpoints of the embedded document, parsed once.
func Default() (Endpoints, error) {
	defaultOnce.Do(func() {
		defaultEndpoints, defaultErr = Parse(context.Background(), Raw())
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	out := make(Endpoints, len(defaultEndpoints))
	for k, v := range defaultEndpoints {
		out[k] = v
	}
	return out, nil
}

// MustDefault panics when the embedded document is invalid.
func MustDefault() Endpoints {
	eps, err := Default()
	if err != nil {
		panic(err)
	}
	return eps
}

// Static is the endpoint table without parsing, used as a fallback and to
// check the embedded document in tests.
func Static() Endpoints {
	return Endpoints{
		OpGenerateTemplate: {OperationID: OpGenerateTemplate, Method: http.MethodPost, Path: "/generate-gtm-template"},
		OpSimulateConsent:  {OperationID: OpSimulateConsent, Method: http.MethodPost, Path: "/simulate-consent"},
		OpUploadPolicy:     {OperationID: OpUploadPolicy, Method: http.MethodPost, Path: "/upload-policy"},
		OpConsentAnalytics: {OperationID: OpConsentAnalytics, Method: http.MethodGet, Path: "/consent-analytics"},
	}
}
