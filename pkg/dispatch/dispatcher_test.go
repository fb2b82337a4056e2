package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/contract"
)

func newDispatcher(t *testing.T, handler http.HandlerFunc) *Dispatcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d, err := New(srv.URL, WithLogger(log.Discard()), WithEndpoints(contract.Static()))
	require.NoError(t, err)
	return d
}

func TestNew_RequiresAbsoluteURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
	_, err = New("/relative")
	assert.Error(t, err)
}

func TestPostJSON_Success(t *testing.T) {
	var gotMethod, gotPath, gotType string
	var gotBody map[string]any
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"template":"T","trigger":"Tr","variable":"V"}`)
	})

	res := d.PostJSON(context.Background(), contract.OpGenerateTemplate, map[string]any{"language": "en"})

	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/generate-gtm-template", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "en", gotBody["language"])
	assert.Equal(t, "T", res.Field("template"))
	assert.Equal(t, "Tr", res.Field("trigger"))
	assert.Equal(t, "V", res.Field("variable"))
}

func TestPostJSON_ErrorFieldIsDomainErrorWhateverTheStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest} {
		d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":"bad config"}`)
		})
		res := d.PostJSON(context.Background(), contract.OpGenerateTemplate, struct{}{})
		assert.Equal(t, KindDomainError, res.Kind, "status %d", status)
		assert.Equal(t, "bad config", res.Reason)
		assert.Equal(t, status, res.Status)
	}
}

func TestPostJSON_NonJSONBodyIsTransportError(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>Internal Server Error</html>")
	})
	res := d.PostJSON(context.Background(), contract.OpGenerateTemplate, struct{}{})
	assert.Equal(t, KindTransportError, res.Kind)
	assert.True(t, errors.Is(res.Err, ErrMalformedBody))
}

func TestPostJSON_NetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d, err := New(url, WithLogger(log.Discard()))
	require.NoError(t, err)
	res := d.PostJSON(context.Background(), contract.OpSimulateConsent, map[string]bool{"analytics": true})
	assert.Equal(t, KindTransportError, res.Kind)
	assert.Error(t, res.Err)
}

func TestDo_UnknownOperation(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})
	res := d.Get(context.Background(), "missing")
	assert.Equal(t, KindTransportError, res.Kind)
	assert.True(t, errors.Is(res.Err, contract.ErrUnknownOperation))
}

func TestGet_Analytics(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/consent-analytics", r.URL.Path)
		_, _ = io.WriteString(w, `{"consent_rate":0.42,"rejection_rate":0.58}`)
	})
	res := d.Get(context.Background(), contract.OpConsentAnalytics)
	require.True(t, res.OK())
	var out struct {
		ConsentRate float64 `json:"consent_rate"`
	}
	require.NoError(t, res.Decode(&out))
	assert.InDelta(t, 0.42, out.ConsentRate, 1e-9)
}

func TestPostMultipart_SendsFileAndFields(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "v1", r.FormValue("version"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "policy.txt", header.Filename)
		assert.Equal(t, "we respect privacy", string(content))
		_, _ = io.WriteString(w, `{"message":"File policy.txt uploaded successfully"}`)
	})

	res := d.PostMultipart(context.Background(), contract.OpUploadPolicy, Multipart{
		FileName: "policy.txt",
		File:     strings.NewReader("we respect privacy"),
		Fields:   map[string]string{"version": "v1"},
	})
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, "File policy.txt uploaded successfully", res.Field("message"))
}

func TestInterpret_NonObjectBodyIsMalformed(t *testing.T) {
	for _, body := range []string{`null`, `[]`, `[{"error":"x"}]`, `42`} {
		res := Interpret(http.StatusOK, []byte(body))
		assert.Equal(t, KindTransportError, res.Kind, "body %q", body)
		assert.True(t, errors.Is(res.Err, ErrMalformedBody), "body %q", body)
	}
}

func TestInterpret_Truthiness(t *testing.T) {
	cases := map[string]Kind{
		`{"error":""}`:       KindSuccess,
		`{"error":null}`:     KindSuccess,
		`{"error":false}`:    KindSuccess,
		`{"error":0}`:        KindSuccess,
		`{"error":"x"}`:      KindDomainError,
		`{"error":{"c":1}}`:  KindDomainError,
		`{"message":"fine"}`: KindSuccess,
		``:                   KindTransportError,
		`{"message":`:        KindTransportError,
		`null`:               KindTransportError,
		`[]`:                 KindTransportError,
		`"done"`:             KindTransportError,
	}
	for body, want := range cases {
		assert.Equal(t, want, Interpret(http.StatusOK, []byte(body)).Kind, "body %q", body)
	}
}
