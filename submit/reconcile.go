package submit

import (
	"strings"

	"inkblog/form"
	"inkblog/models"
)

// Rule attaches a failure message to Fields when the message contains
// Contains.
type Rule struct {
	Contains string
	Fields   []string
}

type Rules []Rule

var (
	postRules = Rules{
		{Contains: "Thumbnail too large", Fields: []string{FieldThumbnail}},
	}
	registrationRules = Rules{
		{Contains: "Username", Fields: []string{FieldUsername}},
		{Contains: "Email", Fields: []string{FieldEmail}},
	}
	// The backend does not say which credential was wrong.
	loginRules = Rules{
		{Contains: "Invalid", Fields: []string{FieldEmail, FieldPassword}},
	}
	profileRules = Rules{
		{Contains: "Username", Fields: []string{FieldUsername}},
		{Contains: "Email", Fields: []string{FieldEmail}},
		{Contains: "Invalid", Fields: []string{FieldCurrentPassword}},
	}
	// Avatar failures are never attached to a field unless the backend
	// names it.
	avatarRules = Rules{}
)

// Apply attaches a failed result to the form as server-origin errors. A
// result naming a field the form knows wins over the substring rules. It
// reports whether any field was flagged; a message that matches nothing is
// left unattached.
func (r Rules) Apply(s form.State, res models.Result) (form.State, bool) {
	if res.Success || res.Message == "" {
		return s, false
	}
	if res.Field != "" && (s.Has(res.Field) || s.File(res.Field) != nil || r.knows(res.Field)) {
		return s.SetServerError(res.Field, res.Message), true
	}

	matched := false
	for _, rule := range r {
		if !strings.Contains(res.Message, rule.Contains) {
			continue
		}
		for _, field := range rule.Fields {
			s = s.SetServerError(field, res.Message)
		}
		matched = true
	}
	return s, matched
}

func (r Rules) knows(field string) bool {
	for _, rule := range r {
		for _, f := range rule.Fields {
			if f == field {
				return true
			}
		}
	}
	return false
}
