package validation

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestValidationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords need six characters", prop.ForAll(
		func(password string) bool {
			errs := LoginInput{Email: "user@example.com", Password: password}.Validate()
			_, failed := errs["password"]
			return failed == (len(password) < 6)
		},
		gen.AlphaString(),
	))

	properties.Property("new password boundary", prop.ForAll(
		func(n int) bool {
			pw := strings.Repeat("x", n)
			in := ProfileEditInput{Name: "Ann", Username: "ann", Email: "ann@example.com", NewPassword: Optional(pw)}
			_, failed := in.Validate()["newPassword"]
			return failed == (n > 0 && n < 6)
		},
		gen.IntRange(0, 12),
	))

	properties.Property("tag count limit", prop.ForAll(
		func(n int) bool {
			tags := make([]string, n)
			for i := range tags {
				tags[i] = "tag"
			}
			in := validPost()
			in.Tags = strings.Join(tags, ",")
			_, failed := in.Validate()["tags"]
			return failed == (n > MaxTags)
		},
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}
