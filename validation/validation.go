// Package validation holds the form schemas shared by the web pages and the
// API handlers. Every schema trims its string fields, runs the declared rules
// and reports at most one message per field, keyed by the field's wire name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const MsgRequired = "Required field"

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) Error() string {
	field, msg := e.First()
	if len(e) == 1 {
		return fmt.Sprintf("%s: %s", field, msg)
	}
	return fmt.Sprintf("%s: %s (and %d more)", field, msg, len(e)-1)
}

// Err returns e as an error, or nil when there is nothing to report.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// First returns the alphabetically first field and its message.
func (e Errors) First() (string, string) {
	if len(e) == 0 {
		return "", ""
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields[0], e[fields[0]]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)

	mustRegister(v, "richtext", hasRichText)
	mustRegister(v, "plaintextmin", hasPlainTextMin)
	mustRegister(v, "maxtags", hasMaxTags)
	mustRegister(v, "taglen", hasTagLengths)

	v.RegisterStructValidation(postStructLevel, PostInput{})
	v.RegisterStructValidation(profileStructLevel, ProfileEditInput{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// defaults covers tags whose message does not depend on the field.
var defaults = map[string]string{
	"required": MsgRequired,
	"email":    "Email format is not valid",
}

func run(in any, messages map[string]string) Errors {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"": err.Error()}
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(messages, field, fe.Tag())
	}
	return out
}

func message(messages map[string]string, field, tag string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := defaults[tag]; ok {
		return msg
	}
	return field + " is not valid"
}

// Optional coerces an untouched optional field: the empty string becomes
// nil, anything else is trimmed. It must be applied to the raw value on
// every pass, so "   " stays present and fails its own rules.
func Optional(raw string) *string {
	if raw == "" {
		return nil
	}
	s := strings.TrimSpace(raw)
	return &s
}
