// Package server serves the consent console as HTML. Every form post maps
// onto one console operation and redirects back to the page, so the browser
// never needs script.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	consentform "github.com/goliatone/go-consentform"
	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/dispatch"
	"github.com/goliatone/go-consentform/pkg/page"
	"github.com/goliatone/go-consentform/pkg/registry"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Console is the part of the console the server drives.
type Console interface {
	Bind(values url.Values)
	BindChoices(values url.Values)
	AddEntry() string
	RemoveEntry(id string) bool
	SubmitConfig(ctx context.Context) dispatch.Result
	SubmitChoices(ctx context.Context) dispatch.Result
	SubmitPolicy(ctx context.Context, filename string, file io.Reader, fields map[string]string) dispatch.Result
	RefreshAnalytics(ctx context.Context) error
	WritePage(w io.Writer, r *page.Renderer, title string) error
}

var _ Console = (*consentform.Console)(nil)

// Mux is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Server maps HTTP requests onto console operations.
type Server struct {
	console  Console
	opts     Options
	renderer *page.Renderer
	logger   *log.Logger
}

func New(console Console, fns ...OptionFn) (*Server, error) {
	if console == nil {
		return nil, errors.New("server: console is required")
	}
	opts := NewOptions(fns...)
	s := &Server{console: console, opts: opts, logger: opts.Logger}

	rendererOpts := []page.Option{page.WithDecorator(s.decorate)}
	if opts.Engine != nil {
		rendererOpts = append(rendererOpts, page.WithEngine(opts.Engine))
	}
	renderer, err := page.NewRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("server: page renderer: %w", err)
	}
	s.renderer = renderer
	return s, nil
}

// Path returns route mounted under the base path.
func (s *Server) Path(route string) string {
	return mountPath(s.opts.BasePath, route)
}

// RegisterRoutes registers every console route on mux.
func (s *Server) RegisterRoutes(mux Mux) error {
	if mux == nil {
		return fmt.Errorf("server: missing mux")
	}
	root := s.Path("/")
	if strings.HasSuffix(root, "/") {
		root += "{$}"
	}
	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, root, s.handlePage},
		{http.MethodGet, s.Path("/healthz"), s.handleHealth},
		{http.MethodPost, s.Path("/entries"), s.handleAddEntry},
		{http.MethodPost, s.Path("/entries/{id}/remove"), s.handleRemoveEntry},
		{http.MethodPost, s.Path("/generate"), s.handleGenerate},
		{http.MethodPost, s.Path("/simulate"), s.handleSimulate},
		{http.MethodPost, s.Path("/policy"), s.handlePolicy},
		{http.MethodPost, s.Path("/analytics/refresh"), s.handleAnalyticsRefresh},
	}
	for _, route := range routes {
		mux.Handle(route.method+" "+route.path, s.guard(route.handler))
	}
	return nil
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	_ = s.RegisterRoutes(mux)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("console listening", log.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) guard(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Guard != nil {
			if err := s.opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		next(w, r)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.console.WritePage(w, s.renderer, s.opts.Title); err != nil {
		s.logger.Error("render page failed", log.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	if !s.bindForm(w, r) {
		return
	}
	s.console.AddEntry()
	s.redirect(w, r)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	if !s.bindForm(w, r) {
		return
	}
	id := r.PathValue("id")
	if !s.console.RemoveEntry(id) {
		s.logger.Debug("remove of unknown entry ignored", log.String("entry", id))
	}
	s.redirect(w, r)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.bindForm(w, r) {
		return
	}
	s.console.SubmitConfig(r.Context())
	s.redirect(w, r)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	s.console.BindChoices(r.PostForm)
	s.console.SubmitChoices(r.Context())
	s.redirect(w, r)
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		s.logger.Warn("policy upload rejected", log.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	fields := map[string]string{}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	var (
		name string
		body io.Reader
	)
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		name, body = header.Filename, file
	case errors.Is(err, http.ErrMissingFile):
		// Sent without a file part; the backend reports what is missing.
	default:
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	s.console.SubmitPolicy(r.Context(), name, body, fields)
	s.redirect(w, r)
}

func (s *Server) handleAnalyticsRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.console.RefreshAnalytics(r.Context()); err != nil {
		s.logger.Warn("analytics refresh failed", log.Error(err))
	}
	s.redirect(w, r)
}

func (s *Server) bindForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	s.console.Bind(r.PostForm)
	return true
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.Path("/"), http.StatusSeeOther)
}

// decorate adds the form actions that turn the document into a working
// page.
func (s *Server) decorate(n *view.Node) map[string]string {
	switch {
	case n.ID == consentform.IDKlaroForm:
		return map[string]string{"action": s.Path("/generate"), "method": "post"}
	case n.ID == consentform.IDDebugForm:
		return map[string]string{"action": s.Path("/simulate"), "method": "post"}
	case n.ID == consentform.IDPolicyForm:
		return map[string]string{"action": s.Path("/policy"), "method": "post", "enctype": "multipart/form-data"}
	case n.ID == consentform.IDAnalyticsRefresh:
		return map[string]string{"action": s.Path("/analytics/refresh"), "method": "post"}
	case n.ID == consentform.IDAddEntry:
		return map[string]string{"type": "submit", "formaction": s.Path("/entries"), "formmethod": "post", "formnovalidate": "formnovalidate"}
	case n.Tag == view.TagButton && n.Class == registry.RemoveClass:
		id := url.PathEscape(n.Attr(registry.EntryIDAttr))
		return map[string]string{"type": "submit", "formaction": s.Path("/entries/" + id + "/remove"), "formmethod": "post", "formnovalidate": "formnovalidate"}
	}
	return nil
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if c := httpErr.StatusCode(); c > 0 {
			code = c
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
