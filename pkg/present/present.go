// Package present turns dispatch results into view mutations. Each
// presenter owns a fixed set of regions and tolerates missing ones.
package present

import (
	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/dispatch"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Generic messages shown when a failure carries no backend reason.
const (
	GenericTemplateError   = "An error occurred while generating the template."
	GenericUploadError     = "An error occurred while uploading the file."
	GenericSimulationError = "An error occurred while simulating consent."
)

// Presenter consumes one result.
type Presenter interface {
	Present(res dispatch.Result)
}

// Func adapts a function to Presenter.
type Func func(dispatch.Result)

func (f Func) Present(res dispatch.Result) {
	if f != nil {
		f(res)
	}
}

// Message picks the text shown for a failed result: the backend's reason for
// domain errors, fallback for everything else.
func Message(res dispatch.Result, fallback string) string {
	if res.Kind == dispatch.KindDomainError && res.Reason != "" {
		return res.Reason
	}
	return fallback
}

// TemplatePresenter renders generated tag-manager artifacts.
type TemplatePresenter struct {
	Output   *view.Node
	Template *view.Node
	Trigger  *view.Node
	Variable *view.Node
	Error    *view.Node
	Logger   *log.Logger
}

func (p TemplatePresenter) Present(res dispatch.Result) {
	if res.OK() {
		p.Template.SetText(res.Field("template"))
		p.Trigger.SetText(res.Field("trigger"))
		p.Variable.SetText(res.Field("variable"))
		p.Output.Show()
		p.Error.SetText("")
		p.Error.Hide()
		return
	}

	logFailure(p.Logger, "template generation failed", res)
	p.Output.Hide()
	p.Error.SetText(Message(res, GenericTemplateError))
	p.Error.Show()
}

// SimulationPresenter delivers the simulation outcome to a notifier and,
// when present, a status region.
type SimulationPresenter struct {
	Notifier view.Notifier
	Status   *view.Node
	Logger   *log.Logger
}

func (p SimulationPresenter) Present(res dispatch.Result) {
	var message string
	if res.OK() {
		message = res.Field("message")
		p.Logger.Info("consent simulation", log.String("message", message))
	} else {
		logFailure(p.Logger, "consent simulation failed", res)
		message = Message(res, GenericSimulationError)
	}

	p.Status.SetText(message)
	if message != "" {
		p.Status.Show()
	}
	if p.Notifier != nil {
		p.Notifier.Notify(message)
	}
}

// UploadPresenter reports the policy upload outcome. Success raises an
// alert; failure goes to the shared error region.
type UploadPresenter struct {
	Error    *view.Node
	Notifier view.Notifier
	Logger   *log.Logger
}

func (p UploadPresenter) Present(res dispatch.Result) {
	if res.OK() {
		message := res.Field("message")
		p.Logger.Info("policy uploaded", log.String("message", message))
		p.Error.SetText("")
		if p.Notifier != nil {
			p.Notifier.Alert(message)
		}
		return
	}

	logFailure(p.Logger, "policy upload failed", res)
	p.Error.SetText(Message(res, GenericUploadError))
	p.Error.Show()
}

func logFailure(logger *log.Logger, msg string, res dispatch.Result) {
	fields := []log.Field{log.String("kind", res.Kind.String())}
	if res.Status != 0 {
		fields = append(fields, log.Int("status", res.Status))
	}
	if res.Reason != "" {
		fields = append(fields, log.String("reason", res.Reason))
	}
	if res.Err != nil {
		fields = append(fields, log.Error(res.Err))
	}
	logger.Error(msg, fields...)
}
