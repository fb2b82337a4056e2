// Package consentform wires the consent configuration console: the view
// document, the entry registry, the backend pipelines and their presenters,
// and the analytics view.
//
// Every document mutation happens under one lock that stands in for a UI
// thread. Backend calls run outside the lock, so the document stays usable
// while a request is in flight and a pipeline may be submitted again.
package consentform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/analytics"
	"github.com/goliatone/go-consentform/pkg/assembler"
	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/contract"
	"github.com/goliatone/go-consentform/pkg/dispatch"
	"github.com/goliatone/go-consentform/pkg/page"
	"github.com/goliatone/go-consentform/pkg/preset"
	"github.com/goliatone/go-consentform/pkg/present"
	"github.com/goliatone/go-consentform/pkg/prompt"
	"github.com/goliatone/go-consentform/pkg/registry"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Backend is the request side of the console. *dispatch.Dispatcher
// satisfies it.
type Backend interface {
	PostJSON(ctx context.Context, operationID string, payload any) dispatch.Result
	PostMultipart(ctx context.Context, operationID string, form dispatch.Multipart) dispatch.Result
	Get(ctx context.Context, operationID string) dispatch.Result
}

var _ Backend = (*dispatch.Dispatcher)(nil)

// AllowedPolicyExtensions lists the document types the backend accepts.
var AllowedPolicyExtensions = []string{"txt", "pdf", "doc", "docx"}

// ErrPolicyExtension reports a policy file the backend is likely to reject.
var ErrPolicyExtension = errors.New("consentform: policy file type not allowed")

// Pipeline names, used in logs.
const (
	PipelineTemplate   = "template"
	PipelineSimulation = "simulation"
	PipelineUpload     = "upload"
)

// Option configures a Console.
type Option func(*Console)

// WithSequencing toggles request sequencing. When on (the default) only the
// latest submission of a pipeline may render; older completions are
// dropped. When off, whichever response arrives last wins.
func WithSequencing(enabled bool) Option {
	return func(c *Console) {
		c.sequencing = enabled
	}
}

// WithoutAnalytics leaves the analytics section out of the document.
func WithoutAnalytics() Option {
	return func(c *Console) {
		c.withAnalytics = false
	}
}

// WithCategories replaces the consent categories offered for simulation.
func WithCategories(categories ...string) Option {
	return func(c *Console) {
		var cleaned []string
		for _, category := range categories {
			if category = strings.TrimSpace(category); category != "" {
				cleaned = append(cleaned, category)
			}
		}
		if len(cleaned) > 0 {
			c.categories = cleaned
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Console) {
		c.newID = fn
	}
}

// WithNotifier receives every notice and alert in addition to the
// console's own queue.
func WithNotifier(notifier view.Notifier) Option {
	return func(c *Console) {
		c.extraNotifier = notifier
	}
}

type pipeline struct {
	name      string
	seq       atomic.Uint64
	presenter present.Presenter
}

// Console owns the document and runs the pipelines against a backend.
type Console struct {
	mu sync.Mutex

	backend       Backend
	layout        *Layout
	registry      *registry.Registry
	analytics     *analytics.View
	notices       *view.Notices
	extraNotifier view.Notifier
	logger        *log.Logger

	templates   pipeline
	simulations pipeline
	uploads     pipeline

	sequencing    bool
	withAnalytics bool
	categories    []string
	newID         func() string
	initialised   bool
}

// New builds a console with the default document. Call Init before the
// first interaction.
func New(backend Backend, options ...Option) (*Console, error) {
	if backend == nil {
		return nil, errors.New("consentform: backend is required")
	}
	c := &Console{
		backend:       backend,
		notices:       &view.Notices{},
		logger:        log.Default(),
		sequencing:    true,
		withAnalytics: true,
		categories:    append([]string(nil), consent.DefaultCategories...),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	c.layout = NewLayout(c.categories, c.withAnalytics)

	regOpts := []registry.Option{registry.WithLogger(c.logger.WithComponent("registry"))}
	if c.newID != nil {
		regOpts = append(regOpts, registry.WithIDGenerator(c.newID))
	}
	c.registry = registry.New(c.layout.Entries, regOpts...)
	c.layout.AddEntry.SetOnClick(func() { c.registry.Add() })

	var notifier view.Notifier = c.notices
	if c.extraNotifier != nil {
		notifier = view.Fanout{c.notices, c.extraNotifier}
	}

	c.templates.name = PipelineTemplate
	c.templates.presenter = present.TemplatePresenter{
		Output:   c.layout.Output,
		Template: c.layout.Template,
		Trigger:  c.layout.Trigger,
		Variable: c.layout.Variable,
		Error:    c.layout.Error,
		Logger:   c.logger.WithComponent("present.template"),
	}
	c.simulations.name = PipelineSimulation
	c.simulations.presenter = present.SimulationPresenter{
		Notifier: notifier,
		Status:   c.layout.SimulationStatus,
		Logger:   c.logger.WithComponent("present.simulation"),
	}
	c.uploads.name = PipelineUpload
	c.uploads.presenter = present.UploadPresenter{
		Error:    c.layout.Error,
		Notifier: notifier,
		Logger:   c.logger.WithComponent("present.upload"),
	}

	c.analytics = analytics.New(c.layout.AnalyticsData, analytics.FetchFrom(backend),
		analytics.WithLocker(&c.mu),
		analytics.WithLogger(c.logger.WithComponent("analytics")),
	)
	return c, nil
}

// Init creates the first entry and, when the analytics section exists,
// loads the report once. It is safe to call more than once; only the first
// call seeds an entry. Analytics failures render the error notice and are
// not returned.
func (c *Console) Init(ctx context.Context) error {
	c.mu.Lock()
	if !c.initialised {
		c.initialised = true
		if c.registry.Len() == 0 {
			c.registry.Add()
		}
	}
	c.mu.Unlock()

	if c.analytics.Enabled() {
		if err := c.analytics.Refresh(ctx); err != nil {
			c.logger.Warn("initial analytics load failed", log.Error(err))
		}
	}
	return nil
}

// AddEntry appends an empty entry and returns its id.
func (c *Console) AddEntry() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout.AddEntry.Click()
	entries := c.registry.Entries()
	return entries[len(entries)-1].ID()
}

// RemoveEntry removes the entry with the given id through its own remove
// control. Unknown ids are a no-op.
func (c *Console) RemoveEntry(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.registry.Get(id)
	if !ok {
		return false
	}
	entry.RemoveControl().Click()
	return true
}

// EntryIDs returns the entry ids in display order.
func (c *Console) EntryIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.registry.Entries()
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID()
	}
	return ids
}

// FillEntry writes values into an existing entry.
func (c *Console) FillEntry(id string, entry consent.Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.registry.Get(id)
	if ok {
		e.Fill(entry)
	}
	return ok
}

// Assemble reads the current form into a fresh snapshot.
func (c *Console) Assemble() consent.KlaroConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return assembler.Assemble(c.layout.Settings, c.registry)
}

// Choices reads the simulation checkboxes.
func (c *Console) Choices() consent.Choices {
	c.mu.Lock()
	defer c.mu.Unlock()
	return assembler.ReadChoices(c.layout.Checkboxes)
}

// SetChoice checks or clears a category checkbox. Unknown categories
// report false.
func (c *Console) SetChoice(category string, granted bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, box := range c.layout.Checkboxes {
		if box.Category == category {
			box.Control.SetChecked(granted)
			return true
		}
	}
	return false
}

// Categories returns the consent categories in display order.
func (c *Console) Categories() []string {
	return append([]string(nil), c.categories...)
}

// SubmitConfig posts the assembled configuration for template generation
// and renders the outcome.
func (c *Console) SubmitConfig(ctx context.Context) dispatch.Result {
	cfg := c.Assemble()
	c.logger.Debug("submitting configuration", log.Int("services", len(cfg.Services)))
	return c.run(ctx, &c.templates, func(ctx context.Context) dispatch.Result {
		return c.backend.PostJSON(ctx, contract.OpGenerateTemplate, cfg)
	})
}

// SubmitChoices posts the checkbox state for a consent simulation.
func (c *Console) SubmitChoices(ctx context.Context) dispatch.Result {
	choices := c.Choices()
	return c.run(ctx, &c.simulations, func(ctx context.Context) dispatch.Result {
		return c.backend.PostJSON(ctx, contract.OpSimulateConsent, choices)
	})
}

// SubmitPolicy uploads a policy document with optional extra fields. File
// types outside AllowedPolicyExtensions are logged but still sent; the
// backend has the final word.
func (c *Console) SubmitPolicy(ctx context.Context, filename string, file io.Reader, fields map[string]string) dispatch.Result {
	if err := CheckPolicyExtension(filename); err != nil {
		c.logger.Warn("uploading policy with unexpected file type", log.String("file", filename), log.Error(err))
	}
	form := dispatch.Multipart{FileName: filename, File: file, Fields: fields}
	return c.run(ctx, &c.uploads, func(ctx context.Context) dispatch.Result {
		return c.backend.PostMultipart(ctx, contract.OpUploadPolicy, form)
	})
}

// RefreshAnalytics reloads the analytics report.
func (c *Console) RefreshAnalytics(ctx context.Context) error {
	return c.analytics.Refresh(ctx)
}

// AnalyticsEnabled reports whether the document has an analytics section.
func (c *Console) AnalyticsEnabled() bool {
	return c.analytics.Enabled()
}

// AnalyticsReport returns the last rendered report.
func (c *Console) AnalyticsReport() (consent.Report, bool) {
	return c.analytics.Last()
}

// AnalyticsLines returns the analytics region as text lines.
func (c *Console) AnalyticsLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return analytics.Lines(c.layout.AnalyticsData)
}

// ScheduleAnalytics starts a periodic analytics refresh. The caller stops
// the returned scheduler.
func (c *Console) ScheduleAnalytics(ctx context.Context, spec string) (*analytics.Scheduler, error) {
	if !c.analytics.Enabled() {
		return nil, analytics.ErrDisabled
	}
	scheduler, err := analytics.NewScheduler(c.analytics, spec,
		analytics.WithSchedulerLogger(c.logger.WithComponent("analytics.scheduler")))
	if err != nil {
		return nil, err
	}
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	return scheduler, nil
}

func (c *Console) run(ctx context.Context, p *pipeline, send func(context.Context) dispatch.Result) dispatch.Result {
	ticket := p.seq.Add(1)
	res := send(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sequencing {
		if latest := p.seq.Load(); ticket != latest {
			c.logger.Debug("dropping stale response",
				log.String("pipeline", p.name),
				log.Uint64("ticket", ticket),
				log.Uint64("latest", latest),
				log.String("kind", res.Kind.String()),
			)
			return res
		}
	}
	p.presenter.Present(res)
	return res
}

// Output is the visible state of the template and error regions.
type Output struct {
	Visible  bool
	Template string
	Trigger  string
	Variable string
	Error    string
}

// TemplateOutput reads the generated artifacts and the error region.
func (c *Console) TemplateOutput() Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Output{
		Visible:  c.layout.Output.Visible(),
		Template: c.layout.Template.Text(),
		Trigger:  c.layout.Trigger.Text(),
		Variable: c.layout.Variable.Text(),
		Error:    c.layout.Error.Text(),
	}
}

// SimulationStatus reads the simulation status region.
func (c *Console) SimulationStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.SimulationStatus.Text()
}

// Notices returns and clears the queued notices and alerts.
func (c *Console) Notices() []view.Notice {
	return c.notices.Drain()
}

// ApplyPreset writes a preset into the form. Non-empty settings replace the
// current values; a preset with services replaces every entry.
func (c *Console) ApplyPreset(p preset.Preset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := func(n *view.Node, value string) {
		if value != "" {
			n.SetValue(value)
		}
	}
	set(c.layout.Settings.Language, p.Language)
	set(c.layout.Settings.StorageMethod, p.StorageMethod)
	set(c.layout.Settings.ConsentTitle, p.ConsentTitle)
	set(c.layout.Settings.ConsentDescription, p.ConsentDescription)

	if len(p.Services) == 0 {
		return
	}
	c.registry.Reset()
	for _, svc := range p.Services {
		c.registry.Add().Fill(svc)
	}
	c.initialised = true
}

// Edit runs fn with exclusive access to the form controls.
func (c *Console) Edit(fn func(prompt.Form) error) error {
	if fn == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(editable{c})
}

type editable struct{ c *Console }

func (e editable) Settings() assembler.Fields { return e.c.layout.Settings }
func (e editable) Registry() *registry.Registry { return e.c.registry }

// Bind copies posted values of the configuration form into the controls.
// Absent keys leave controls untouched; keys of unknown entries are
// ignored.
func (c *Console) Bind(values url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range []*view.Node{
		c.layout.Settings.Language,
		c.layout.Settings.StorageMethod,
		c.layout.Settings.ConsentTitle,
		c.layout.Settings.ConsentDescription,
	} {
		if values.Has(n.Name) {
			n.SetValue(values.Get(n.Name))
		}
	}
	for _, entry := range c.registry.Entries() {
		f := entry.Fields()
		for _, control := range []*view.Node{f.Name, f.Title, f.Description, f.Purposes, f.Default, f.Required} {
			if values.Has(control.Name) {
				control.SetValue(values.Get(control.Name))
			}
		}
	}
}

// BindChoices sets every category checkbox from a posted debug form: a
// checkbox is checked iff its name is present.
func (c *Console) BindChoices(values url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, box := range c.layout.Checkboxes {
		box.Control.SetChecked(values.Has(box.Control.Name))
	}
}

// WritePage renders the document with r and drains the notices into it.
func (c *Console) WritePage(w io.Writer, r *page.Renderer, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return r.Render(w, page.Document{
		Title:   title,
		Root:    c.layout.Root,
		Notices: c.notices.Drain(),
	})
}

// CheckPolicyExtension reports ErrPolicyExtension for file names without an
// allowed extension.
func CheckPolicyExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range AllowedPolicyExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrPolicyExtension, filename)
}
