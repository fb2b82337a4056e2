// Package analytics renders the aggregate consent report into its mount
// region and keeps it fresh on a schedule.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/contract"
	"github.com/goliatone/go-consentform/pkg/dispatch"
	"github.com/goliatone/go-consentform/pkg/view"
)

// ErrorMessage replaces the mount content when a refresh fails.
const ErrorMessage = "Error loading analytics data."

// Class names of the rendered lists.
const (
	ClassPopularChoices  = "popular-choices"
	ClassConsentOverTime = "consent-over-time"
)

// ErrDisabled is returned by Refresh when the mount is missing.
var ErrDisabled = errors.New("analytics: mount point is not present")

// Fetcher loads a report.
type Fetcher func(ctx context.Context) (consent.Report, error)

// Getter is the slice of the dispatcher the fetcher needs.
type Getter interface {
	Get(ctx context.Context, operationID string) dispatch.Result
}

// FetchFrom builds a Fetcher over the consentAnalytics operation. Domain
// and transport errors are both failures here.
func FetchFrom(getter Getter) Fetcher {
	return func(ctx context.Context) (consent.Report, error) {
		res := getter.Get(ctx, contract.OpConsentAnalytics)
		switch res.Kind {
		case dispatch.KindSuccess:
			var report consent.Report
			if err := res.Decode(&report); err != nil {
				return consent.Report{}, fmt.Errorf("analytics: decode report: %w", err)
			}
			return report, nil
		case dispatch.KindDomainError:
			return consent.Report{}, fmt.Errorf("analytics: backend error: %s", res.Reason)
		default:
			return consent.Report{}, fmt.Errorf("analytics: fetch report: %w", res.Err)
		}
	}
}

// Option configures a View.
type Option func(*View)

// WithLocker makes the view take lock around every mutation of its mount.
// The console passes its document lock here.
func WithLocker(lock sync.Locker) Option {
	return func(v *View) {
		if lock != nil {
			v.lock = lock
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// View owns the analytics mount. Only the latest issued refresh renders.
type View struct {
	mount  *view.Node
	fetch  Fetcher
	lock   sync.Locker
	logger *log.Logger
	policy *bluemonday.Policy

	seq  atomic.Uint64
	last *consent.Report
}

func New(mount *view.Node, fetch Fetcher, options ...Option) *View {
	v := &View{
		mount:  mount,
		fetch:  fetch,
		lock:   &sync.Mutex{},
		logger: log.Default().WithComponent("analytics"),
		policy: bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Enabled reports whether the mount exists.
func (v *View) Enabled() bool {
	return v != nil && v.mount != nil
}

// Refresh fetches a report and renders it, or the error notice on failure.
// The fetch runs without the lock.
func (v *View) Refresh(ctx context.Context) error {
	if !v.Enabled() {
		return ErrDisabled
	}
	if v.fetch == nil {
		return errors.New("analytics: no fetcher configured")
	}
	ticket := v.seq.Add(1)

	report, err := v.fetch(ctx)

	v.lock.Lock()
	defer v.lock.Unlock()
	if ticket != v.seq.Load() {
		v.logger.Debug("dropping stale analytics refresh", log.Uint64("ticket", ticket))
		return nil
	}
	if err != nil {
		v.logger.Error("analytics refresh failed", log.Error(err))
		v.renderError()
		return err
	}
	v.render(report)
	return nil
}

// Render replaces the mount content with report. The caller must hold the
// lock given to WithLocker, if any.
func (v *View) Render(report consent.Report) {
	if !v.Enabled() {
		return
	}
	v.render(report)
}

// RenderError replaces the mount content with the error notice.
func (v *View) RenderError() {
	if !v.Enabled() {
		return
	}
	v.renderError()
}

// Last returns the most recently rendered report.
func (v *View) Last() (consent.Report, bool) {
	v.lock.Lock()
	defer v.lock.Unlock()
	if v.last == nil {
		return consent.Report{}, false
	}
	return *v.last, true
}

func (v *View) render(report consent.Report) {
	v.mount.Clear()
	v.mount.Append(
		labelled("Consent Rate:", Percent(report.ConsentRate)),
		labelled("Rejection Rate:", Percent(report.RejectionRate)),
		heading("Popular Choices:"),
	)

	choices := view.New(view.TagUL, view.WithClass(ClassPopularChoices))
	for _, choice := range report.PopularChoices {
		choices.Append(view.New(view.TagLI, view.WithText(v.clean(choice.Name)+": "+Percent(choice.Rate))))
	}
	v.mount.Append(choices, heading("Consent Over Time:"))

	timeline := view.New(view.TagUL, view.WithClass(ClassConsentOverTime))
	for _, point := range report.ConsentOverTime {
		timeline.Append(view.New(view.TagLI, view.WithText(v.clean(point.Date)+": "+Percent(point.ConsentRate))))
	}
	v.mount.Append(timeline)
	v.mount.Show()

	snapshot := report
	v.last = &snapshot
}

func (v *View) renderError() {
	v.mount.Clear()
	v.mount.Append(view.New(view.TagP, view.WithText(ErrorMessage)))
	v.mount.Show()
}

// clean strips markup from backend-supplied labels. Escaping is left to
// whoever renders the document.
func (v *View) clean(raw string) string {
	return html.UnescapeString(v.policy.Sanitize(raw))
}

// Percent formats a fraction as a percentage without rounding it away:
// 0.42 gives "42%", 0.00004 gives "0.004%". Only float noise past nine
// decimals is dropped, so 0.07 gives "7%" and not "7.000000000000001%".
func Percent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return "0%"
	}
	value := math.Round(fraction*100*1e9) / 1e9
	if value == 0 {
		return "0%"
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + "%"
}

func labelled(label, value string) *view.Node {
	return view.New(view.TagP).Append(
		view.New(view.TagStrong, view.WithText(label)),
		view.New(view.TagSpan, view.WithText(" "+value)),
	)
}

func heading(label string) *view.Node {
	return view.New(view.TagP).Append(view.New(view.TagStrong, view.WithText(label)))
}

// Lines returns the rendered mount as plain text lines, one per paragraph
// or list item. The CLI prints these when no table is wanted.
func Lines(mount *view.Node) []string {
	var out []string
	for _, node := range mount.FindAll(func(n *view.Node) bool {
		return n.Tag == view.TagP || n.Tag == view.TagLI
	}) {
		if text := strings.TrimSpace(node.TextContent()); text != "" {
			out = append(out, text)
		}
	}
	return out
}
