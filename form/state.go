// Package form models a form as an immutable value. Every transition returns
// a new State and leaves the receiver untouched, so a handler can keep the
// previous state around or throw it away freely.
package form

import (
	"errors"
	"sort"

	"inkblog/upload"
	"inkblog/validation"
)

var ErrInFlight = errors.New("form: submission already in progress")

// Origin tells client-side schema errors apart from errors attached after a
// failed server call.
type Origin int

const (
	Client Origin = iota
	Server
)

type FieldError struct {
	Message string
	Origin  Origin
}

type (
	Values map[string]string
	Files  map[string]*upload.File
)

// Schema validates the whole form and reports errors per field.
type Schema func(Values, Files) validation.Errors

type State struct {
	schema     Schema
	values     Values
	baseline   Values
	files      Files
	errors     map[string]FieldError
	submitting bool
}

// New starts a form whose baseline is defaults.
func New(schema Schema, defaults Values) State {
	return State{
		schema:   schema,
		values:   cloneValues(defaults),
		baseline: cloneValues(defaults),
		files:    Files{},
		errors:   map[string]FieldError{},
	}
}

// Reset loads a new baseline, dropping edits, staged files and errors.
func (s State) Reset(baseline Values) State {
	return New(s.schema, baseline)
}

// Change sets a field and revalidates that field only. Any error previously
// attached to it, from either origin, is replaced.
func (s State) Change(field, value string) State {
	next := s.clone()
	next.values[field] = value
	delete(next.errors, field)
	if next.schema != nil {
		if msg, ok := next.schema(next.values, next.files)[field]; ok {
			next.errors[field] = FieldError{Message: msg, Origin: Client}
		}
	}
	return next
}

// Focus clears a server-origin error on field. Client errors stay until the
// value is corrected.
func (s State) Focus(field string) State {
	if fe, ok := s.errors[field]; !ok || fe.Origin != Server {
		return s
	}
	next := s.clone()
	delete(next.errors, field)
	return next
}

// Stage attaches a local file to field and clears its error.
func (s State) Stage(field string, f *upload.File) State {
	next := s.clone()
	next.files[field] = f
	delete(next.errors, field)
	return next
}

func (s State) Unstage(field string) State {
	if _, ok := s.files[field]; !ok {
		return s
	}
	next := s.clone()
	delete(next.files, field)
	return next
}

// Validate runs the full schema. The result replaces every error, server
// ones included.
func (s State) Validate() (State, bool) {
	next := s.clone()
	next.errors = map[string]FieldError{}
	if next.schema != nil {
		for field, msg := range next.schema(next.values, next.files) {
			next.errors[field] = FieldError{Message: msg, Origin: Client}
		}
	}
	return next, len(next.errors) == 0
}

func (s State) SetServerError(field, msg string) State {
	next := s.clone()
	next.errors[field] = FieldError{Message: msg, Origin: Server}
	return next
}

// Begin marks the form as submitting. It fails while an earlier submission
// has not finished.
func (s State) Begin() (State, error) {
	if s.submitting {
		return s, ErrInFlight
	}
	next := s.clone()
	next.submitting = true
	return next, nil
}

func (s State) Finish() State {
	next := s.clone()
	next.submitting = false
	return next
}

func (s State) Submitting() bool { return s.submitting }

func (s State) Value(field string) string { return s.values[field] }

func (s State) Values() Values { return cloneValues(s.values) }

func (s State) File(field string) *upload.File { return s.files[field] }

func (s State) Files() Files {
	out := make(Files, len(s.files))
	for k, v := range s.files {
		out[k] = v
	}
	return out
}

// Has reports whether field is part of the form.
func (s State) Has(field string) bool {
	if _, ok := s.values[field]; ok {
		return true
	}
	_, ok := s.baseline[field]
	return ok
}

func (s State) Error(field string) (FieldError, bool) {
	fe, ok := s.errors[field]
	return fe, ok
}

// Errors returns the message of every field in error.
func (s State) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, fe := range s.errors {
		out[k] = fe.Message
	}
	return out
}

// Dirty lists, sorted, the fields whose value differs from the baseline.
func (s State) Dirty() []string {
	var dirty []string
	for field, v := range s.values {
		if s.baseline[field] != v {
			dirty = append(dirty, field)
		}
	}
	for field := range s.baseline {
		if _, ok := s.values[field]; !ok {
			dirty = append(dirty, field)
		}
	}
	sort.Strings(dirty)
	return dirty
}

func (s State) IsDirty() bool { return len(s.Dirty()) > 0 }

func (s State) clone() State {
	next := s
	next.values = cloneValues(s.values)
	next.files = s.Files()
	next.errors = make(map[string]FieldError, len(s.errors))
	for k, v := range s.errors {
		next.errors[k] = v
	}
	return next
}

func cloneValues(v Values) Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
