package server

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/page"
)

// GuardFunc rejects a request by returning an error. Errors implementing
// HTTPError choose the status code.
type GuardFunc func(r *http.Request) error

// Options configures the console server.
type Options struct {
	BasePath       string
	Title          string
	MaxUploadBytes int64
	Guard          GuardFunc
	Engine         *page.Engine
	Logger         *log.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		BasePath:       "/",
		Title:          "Klaro consent configuration",
		MaxUploadBytes: 10 << 20,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if strings.TrimSpace(opts.BasePath) == "" {
		opts.BasePath = "/"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Logger == nil {
		opts.Logger = log.Default().WithComponent("server")
	}
	return opts
}

// WithBasePath mounts every route under path.
func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		o.BasePath = path
	}
}

func WithTitle(title string) OptionFn {
	return func(o *Options) {
		if strings.TrimSpace(title) != "" {
			o.Title = title
		}
	}
}

// WithMaxUploadBytes caps the size of a policy upload request.
func WithMaxUploadBytes(n int64) OptionFn {
	return func(o *Options) {
		o.MaxUploadBytes = n
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.Guard = guard
	}
}

// WithEngine renders the page through a custom template engine, which
// must provide the "page" template.
func WithEngine(engine *page.Engine) OptionFn {
	return func(o *Options) {
		o.Engine = engine
	}
}

func WithLogger(logger *log.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
