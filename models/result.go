package models

import "encoding/json"

// Result is the envelope every write operation answers with. Message is a
// human-readable string; Field, when set, names the form field the failure
// belongs to.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Field   string          `json:"field,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals Data into out. A result without data leaves out untouched.
func (r Result) Decode(out any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}
