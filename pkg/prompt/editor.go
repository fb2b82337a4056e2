// Package prompt edits the consent form from a terminal. It writes into the
// same view controls the HTML console uses, so a form edited here assembles
// exactly like one filled in a browser.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-consentform/internal/log"
	"github.com/goliatone/go-consentform/pkg/assembler"
	"github.com/goliatone/go-consentform/pkg/consent"
	"github.com/goliatone/go-consentform/pkg/registry"
	"github.com/goliatone/go-consentform/pkg/view"
)

// Form exposes the controls the editor writes into.
type Form interface {
	Settings() assembler.Fields
	Registry() *registry.Registry
}

// Menu actions in display order.
const (
	ActionSettings = iota
	ActionAdd
	ActionEdit
	ActionRemove
	ActionDone
)

var menu = []string{
	ActionSettings: "Edit settings",
	ActionAdd:      "Add consent service",
	ActionEdit:     "Edit consent service",
	ActionRemove:   "Remove consent service",
	ActionDone:     "Done",
}

// Option configures an Editor.
type Option func(*Editor)

func WithLogger(logger *log.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Editor walks the operator through the form.
type Editor struct {
	driver Driver
	logger *log.Logger
}

func NewEditor(driver Driver, options ...Option) (*Editor, error) {
	if driver == nil {
		return nil, errors.New("prompt: driver is required")
	}
	e := &Editor{driver: driver, logger: log.Default().WithComponent("prompt")}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Run shows the menu until the operator picks Done or aborts.
func (e *Editor) Run(ctx context.Context, form Form) error {
	if form == nil || form.Registry() == nil {
		return errors.New("prompt: form is required")
	}
	for {
		choice, err := e.driver.Select(ctx, SelectConfig{
			Message: fmt.Sprintf("Consent form (%d services)", form.Registry().Len()),
			Options: menu,
		})
		if err != nil {
			return err
		}

		switch choice {
		case ActionSettings:
			err = e.EditSettings(ctx, form.Settings())
		case ActionAdd:
			entry := form.Registry().Add()
			err = e.EditEntry(ctx, entry)
		case ActionEdit:
			var entry *registry.Entry
			if entry, err = e.pick(ctx, form.Registry(), "Service to edit"); err == nil {
				err = e.EditEntry(ctx, entry)
			}
		case ActionRemove:
			err = e.remove(ctx, form.Registry())
		case ActionDone:
			return e.summary(ctx, form.Registry())
		default:
			return fmt.Errorf("prompt: unknown menu choice %d", choice)
		}

		if errors.Is(err, ErrNoEntries) {
			if infoErr := e.driver.Info(ctx, "There are no consent services yet."); infoErr != nil {
				return infoErr
			}
			continue
		}
		if err != nil {
			return err
		}
	}
}

// EditSettings prompts for the top-level settings. Missing controls are
// skipped.
func (e *Editor) EditSettings(ctx context.Context, fields assembler.Fields) error {
	if err := e.ask(ctx, fields.Language, "Language"); err != nil {
		return err
	}
	if err := e.ask(ctx, fields.StorageMethod, "Storage method"); err != nil {
		return err
	}
	if err := e.ask(ctx, fields.ConsentTitle, "Consent title"); err != nil {
		return err
	}
	if fields.ConsentDescription != nil {
		text, err := e.driver.TextArea(ctx, TextAreaConfig{
			Message: "Consent description",
			Default: fields.ConsentDescription.Value(),
		})
		if err != nil {
			return err
		}
		fields.ConsentDescription.SetValue(text)
	}
	return nil
}

// EditEntry prompts for every field of entry, prefilled with its current
// values.
func (e *Editor) EditEntry(ctx context.Context, entry *registry.Entry) error {
	current := assembler.ReadEntry(entry.Fields())
	var err error
	next := current

	if next.Name, err = e.driver.Input(ctx, InputConfig{
		Message:   "Name",
		Default:   current.Name,
		Help:      "Unique identifier of the service",
		Validator: required("name"),
	}); err != nil {
		return err
	}
	if next.Title, err = e.driver.Input(ctx, InputConfig{
		Message:   "Title",
		Default:   current.Title,
		Validator: required("title"),
	}); err != nil {
		return err
	}
	if next.Description, err = e.driver.TextArea(ctx, TextAreaConfig{
		Message: "Description",
		Default: current.Description,
	}); err != nil {
		return err
	}
	purposes, err := e.driver.Input(ctx, InputConfig{
		Message: "Purposes (comma-separated)",
		Default: entry.Fields().Purposes.Value(),
	})
	if err != nil {
		return err
	}
	next.Purposes = consent.SplitPurposes(purposes)
	if next.Default, err = e.driver.Confirm(ctx, ConfirmConfig{Message: "Enabled by default?", Default: current.Default}); err != nil {
		return err
	}
	if next.Required, err = e.driver.Confirm(ctx, ConfirmConfig{Message: "Required?", Default: current.Required}); err != nil {
		return err
	}

	entry.Fill(next)
	e.logger.Debug("consent entry edited", log.String("entry", entry.ID()), log.String("name", next.Name))
	return nil
}

func (e *Editor) summary(ctx context.Context, reg *registry.Registry) error {
	for _, entry := range reg.Entries() {
		if err := e.driver.Info(ctx, FormatEntry(assembler.ReadEntry(entry.Fields()))); err != nil {
			return err
		}
	}
	return nil
}

func (e *Editor) remove(ctx context.Context, reg *registry.Registry) error {
	entry, err := e.pick(ctx, reg, "Service to remove")
	if err != nil {
		return err
	}
	ok, err := e.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Remove %s?", Label(entry))})
	if err != nil || !ok {
		return err
	}
	entry.Remove()
	return nil
}

func (e *Editor) pick(ctx context.Context, reg *registry.Registry, message string) (*registry.Entry, error) {
	entries := reg.Entries()
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	options := make([]string, len(entries))
	for i, entry := range entries {
		options[i] = fmt.Sprintf("%d. %s", i+1, Label(entry))
	}
	idx, err := e.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(entries) {
		return nil, fmt.Errorf("prompt: invalid selection %d", idx)
	}
	return entries[idx], nil
}

// ask prompts for one control. Selects become a choice among their options.
func (e *Editor) ask(ctx context.Context, control *view.Node, message string) error {
	if control == nil {
		return nil
	}
	if control.Tag == view.TagSelect {
		opts := control.Options()
		labels := make([]string, len(opts))
		current := 0
		for i, opt := range opts {
			labels[i] = opt.Label
			if opt.Selected {
				current = i
			}
		}
		idx, err := e.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: current})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(opts) {
			control.SetValue(opts[idx].Value)
		}
		return nil
	}

	value, err := e.driver.Input(ctx, InputConfig{Message: message, Default: control.Value()})
	if err != nil {
		return err
	}
	control.SetValue(value)
	return nil
}

// Label names an entry for menus: its name, or a short id when unnamed.
func Label(entry *registry.Entry) string {
	if name := strings.TrimSpace(entry.Fields().Name.Value()); name != "" {
		return name
	}
	id := entry.ID()
	if len(id) > 8 {
		id = id[:8]
	}
	return "(unnamed " + id + ")"
}

func required(field string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// FormatEntry renders an entry for Info output.
func FormatEntry(entry consent.Entry) string {
	return fmt.Sprintf("%s (%s) purposes=[%s] default=%s required=%s",
		entry.Name, entry.Title, consent.JoinPurposes(entry.Purposes),
		strconv.FormatBool(entry.Default), strconv.FormatBool(entry.Required))
}
