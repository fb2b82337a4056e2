package present

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-consentform/pkg/dispatch"
	"github.com/goliatone/go-consentform/pkg/view"
)

type templateRegions struct {
	output, template, trigger, variable, errMsg *view.Node
}

func newTemplateRegions() (templateRegions, TemplatePresenter) {
	r := templateRegions{
		output:   view.New(view.TagDiv, view.Hidden()),
		template: view.New(view.TagCode),
		trigger:  view.New(view.TagCode),
		variable: view.New(view.TagCode),
		errMsg:   view.New(view.TagP),
	}
	return r, TemplatePresenter{
		Output:   r.output,
		Template: r.template,
		Trigger:  r.trigger,
		Variable: r.variable,
		Error:    r.errMsg,
	}
}

func TestTemplatePresenter_Success(t *testing.T) {
	r, p := newTemplateRegions()
	r.errMsg.SetText("old failure")

	p.Present(dispatch.Success(200, []byte(`{"template":"T","trigger":"Tr","variable":"V"}`)))

	got := []string{r.template.Text(), r.trigger.Text(), r.variable.Text(), r.errMsg.Text()}
	if diff := cmp.Diff([]string{"T", "Tr", "V", ""}, got); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
	if !r.output.Visible() {
		t.Fatalf("expected output region to be visible")
	}
	if r.errMsg.Visible() {
		t.Fatalf("expected error region to be hidden")
	}
}

func TestTemplatePresenter_DomainError(t *testing.T) {
	r, p := newTemplateRegions()
	r.output.Show()

	p.Present(dispatch.DomainError(200, []byte(`{"error":"bad config"}`), "bad config"))

	if r.output.Visible() {
		t.Fatalf("expected output region to be hidden")
	}
	if got := r.errMsg.Text(); got != "bad config" {
		t.Fatalf("expected backend reason, got %q", got)
	}
}

func TestTemplatePresenter_TransportErrorUsesGenericMessage(t *testing.T) {
	r, p := newTemplateRegions()

	p.Present(dispatch.TransportError(errors.New("connection refused")))

	if got := r.errMsg.Text(); got != GenericTemplateError {
		t.Fatalf("expected generic message, got %q", got)
	}
	if r.template.Text() != "" {
		t.Fatalf("template region should stay untouched")
	}
}

func TestTemplatePresenter_NullBodyKeepsOutputHidden(t *testing.T) {
	r, p := newTemplateRegions()

	p.Present(dispatch.Interpret(200, []byte(`null`)))

	if r.output.Visible() {
		t.Fatalf("expected output region to stay hidden")
	}
	if got := r.errMsg.Text(); got != GenericTemplateError {
		t.Fatalf("expected generic message, got %q", got)
	}
	if !r.errMsg.Visible() {
		t.Fatalf("expected error region to be shown")
	}
}

func TestSimulationPresenter_DeliversMessage(t *testing.T) {
	notices := &view.Notices{}
	status := view.New(view.TagP, view.Hidden())
	p := SimulationPresenter{Notifier: notices, Status: status}

	p.Present(dispatch.Success(200, []byte(`{"message":"analytics granted"}`)))
	p.Present(dispatch.TransportError(errors.New("boom")))

	want := []view.Notice{
		{Level: view.NoticeInfo, Message: "analytics granted"},
		{Level: view.NoticeInfo, Message: GenericSimulationError},
	}
	if diff := cmp.Diff(want, notices.Drain()); diff != "" {
		t.Fatalf("notices mismatch (-want +got):\n%s", diff)
	}
	if status.Text() != GenericSimulationError || !status.Visible() {
		t.Fatalf("unexpected status region %q visible=%v", status.Text(), status.Visible())
	}
}

func TestUploadPresenter(t *testing.T) {
	notices := &view.Notices{}
	errMsg := view.New(view.TagP, view.WithText("previous"))
	p := UploadPresenter{Error: errMsg, Notifier: notices}

	p.Present(dispatch.Success(200, []byte(`{"message":"File policy.pdf uploaded successfully"}`)))
	if errMsg.Text() != "" {
		t.Fatalf("expected error region to be cleared, got %q", errMsg.Text())
	}
	want := []view.Notice{{Level: view.NoticeAlert, Message: "File policy.pdf uploaded successfully"}}
	if diff := cmp.Diff(want, notices.Drain()); diff != "" {
		t.Fatalf("alerts mismatch (-want +got):\n%s", diff)
	}

	p.Present(dispatch.DomainError(400, []byte(`{"error":"No file part"}`), "No file part"))
	if errMsg.Text() != "No file part" {
		t.Fatalf("expected backend reason, got %q", errMsg.Text())
	}

	p.Present(dispatch.TransportError(errors.New("reset")))
	if errMsg.Text() != GenericUploadError {
		t.Fatalf("expected generic message, got %q", errMsg.Text())
	}
}

func TestPresenters_TolerateMissingRegions(t *testing.T) {
	results := []dispatch.Result{
		dispatch.Success(200, []byte(`{"message":"ok","template":"T"}`)),
		dispatch.DomainError(200, []byte(`{"error":"x"}`), "x"),
		dispatch.TransportError(errors.New("x")),
	}
	for _, res := range results {
		TemplatePresenter{}.Present(res)
		SimulationPresenter{}.Present(res)
		UploadPresenter{}.Present(res)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(dispatch.DomainError(200, nil, ""), "fallback"); got != "fallback" {
		t.Fatalf("empty reason should fall back, got %q", got)
	}
	if got := Message(dispatch.DomainError(200, nil, "why"), "fallback"); got != "why" {
		t.Fatalf("expected reason, got %q", got)
	}
}
