package analytics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/contract"
	"github.com/goliatone/go-consentform/pkg/dispatch"
	"github.com/goliatone/go-consentform/pkg/view"
)

func sampleReport() consent.Report {
	return consent.Report{
		ConsentRate:   0.42,
		RejectionRate: 0.58,
		PopularChoices: []consent.Rate{
			{Name: "marketing", Rate: 0.1},
			{Name: "analytics", Rate: 0.75},
		},
		ConsentOverTime: []consent.Point{
			{Date: "2024-01-01", ConsentRate: 0.4},
			{Date: "2024-01-02", ConsentRate: 0.45},
		},
	}
}

func staticFetch(report consent.Report, err error) Fetcher {
	return func(context.Context) (consent.Report, error) { return report, err }
}

func TestPercent(t *testing.T) {
	cases := map[float64]string{
		0.42:    "42%",
		0.15:    "15%",
		0.1234:  "12.34%",
		1:       "100%",
		0:       "0%",
		0.005:   "0.5%",
		0.00004: "0.004%",
		0.07:    "7%",
		0.12345: "12.345%",
	}
	for in, want := range cases {
		if got := Percent(in); got != want {
			t.Errorf("Percent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRefresh_RendersInResponseOrder(t *testing.T) {
	mount := view.New(view.TagDiv, view.WithID("consent-analytics-data"))
	v := New(mount, staticFetch(sampleReport(), nil), WithLogger(log.Discard()))

	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	want := []string{
		"Consent Rate: 42%",
		"Rejection Rate: 58%",
		"Popular Choices:",
		"marketing: 10%",
		"analytics: 75%",
		"Consent Over Time:",
		"2024-01-01: 40%",
		"2024-01-02: 45%",
	}
	if diff := cmp.Diff(want, Lines(mount)); diff != "" {
		t.Fatalf("rendered lines mismatch (-want +got):\n%s", diff)
	}
	if _, ok := v.Last(); !ok {
		t.Fatalf("expected last report to be recorded")
	}
}

func TestRender_TwiceLeavesOneCopy(t *testing.T) {
	mount := view.New(view.TagDiv)
	v := New(mount, nil, WithLogger(log.Discard()))

	v.Render(sampleReport())
	first := Lines(mount)
	v.Render(sampleReport())

	if diff := cmp.Diff(first, Lines(mount)); diff != "" {
		t.Fatalf("second render changed content (-first +second):\n%s", diff)
	}
	lists := mount.FindAll(func(n *view.Node) bool { return n.Class == ClassPopularChoices })
	if len(lists) != 1 {
		t.Fatalf("expected one popular choices list, got %d", len(lists))
	}
}

func TestRefresh_FailureReplacesContent(t *testing.T) {
	mount := view.New(view.TagDiv)
	v := New(mount, staticFetch(consent.Report{}, errors.New("down")), WithLogger(log.Discard()))
	v.Render(sampleReport())

	if err := v.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if diff := cmp.Diff([]string{ErrorMessage}, Lines(mount)); diff != "" {
		t.Fatalf("error notice mismatch (-want +got):\n%s", diff)
	}
}

func TestRefresh_DisabledWithoutMount(t *testing.T) {
	v := New(nil, staticFetch(sampleReport(), nil), WithLogger(log.Discard()))
	if v.Enabled() {
		t.Fatalf("view without mount must be disabled")
	}
	if err := v.Refresh(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestRender_StripsMarkupFromLabels(t *testing.T) {
	mount := view.New(view.TagDiv)
	v := New(mount, nil, WithLogger(log.Discard()))
	v.Render(consent.Report{PopularChoices: []consent.Rate{{Name: "<b>ads</b> & more", Rate: 0.5}}})

	items := mount.FindAll(func(n *view.Node) bool { return n.Tag == view.TagLI })
	if len(items) != 1 || items[0].Text() != "ads & more: 50%" {
		t.Fatalf("unexpected item %q", items[0].Text())
	}
}

func TestFetchFrom_Dispatcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"consent_rate":0.42,"rejection_rate":0.58,"popular_choices":{"z":0.2,"a":0.3},"consent_over_time":[]}`)
	}))
	defer srv.Close()

	d, err := dispatch.New(srv.URL, dispatch.WithLogger(log.Discard()), dispatch.WithEndpoints(contract.Static()))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	report, err := FetchFrom(d)(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []consent.Rate{{Name: "z", Rate: 0.2}, {Name: "a", Rate: 0.3}}
	if diff := cmp.Diff(want, report.PopularChoices); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchFrom_DomainError(t *testing.T) {
	getter := getterFunc(func(context.Context, string) dispatch.Result {
		return dispatch.DomainError(500, []byte(`{"error":"no data"}`), "no data")
	})
	if _, err := FetchFrom(getter)(context.Background()); err == nil {
		t.Fatalf("expected error for domain failure")
	}
}

type getterFunc func(context.Context, string) dispatch.Result

func (f getterFunc) Get(ctx context.Context, op string) dispatch.Result { return f(ctx, op) }

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	hit   chan struct{}
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	select {
	case c.hit <- struct{}{}:
	default:
	}
	return nil
}

func TestScheduler_TriggersRefresh(t *testing.T) {
	target := &countingRefresher{hit: make(chan struct{}, 1)}
	s, err := NewScheduler(target, "@every 1s", WithSchedulerLogger(log.Discard()))
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	select {
	case <-target.hit:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler never refreshed")
	}
}

func TestNewScheduler_Validation(t *testing.T) {
	if _, err := NewScheduler(nil, ""); err == nil {
		t.Fatalf("expected error for missing target")
	}
	if _, err := NewScheduler(&countingRefresher{}, "every now and then"); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	s, err := NewScheduler(&countingRefresher{}, "")
	if err != nil {
		t.Fatalf("default spec: %v", err)
	}
	if s.Spec() != DefaultSchedule {
		t.Fatalf("expected default schedule, got %q", s.Spec())
	}
}
