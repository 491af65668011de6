package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"inkblog/upload"
)

func ptr(s string) *string { return &s }

func validPost() PostInput {
	return PostInput{
		Title:     "Hello world",
		Desc:      "<p>abc</p>",
		Tags:      "go, web",
		Thumbnail: &upload.File{Filename: "a.png", ContentType: "image/png", Size: 3},
	}
}

func TestRequiredFields(t *testing.T) {
	for _, blank := range []string{"", "   ", "\t\n"} {
		errs := RegistrationInput{Name: blank, Username: blank, Email: blank, Password: blank}.Validate()
		assert.Equal(t, Errors{
			"name":     MsgRequired,
			"username": MsgRequired,
			"email":    MsgRequired,
			"password": MsgRequired,
		}, errs, "value %q", blank)

		errs = LoginInput{Email: blank, Password: blank}.Validate()
		assert.Equal(t, Errors{"email": MsgRequired, "password": MsgRequired}, errs)

		errs = ProfileEditInput{Name: blank, Username: blank, Email: blank}.Validate()
		assert.Equal(t, Errors{"name": MsgRequired, "username": MsgRequired, "email": MsgRequired}, errs)

		in := validPost()
		in.Title = blank
		assert.Equal(t, MsgRequired, in.Validate()["title"])
	}
}

func TestRegistrationInput(t *testing.T) {
	tests := []struct {
		name string
		in   RegistrationInput
		want Errors
	}{
		{
			name: "valid",
			in:   RegistrationInput{Name: "Ann", Username: "ann", Email: "user@example.com", Password: "secret"},
		},
		{
			name: "trimmed before length checks",
			in:   RegistrationInput{Name: "  An  ", Username: " ab ", Email: " user@example.com ", Password: " 12345 "},
			want: Errors{
				"name":     "Full name must be at least 3 characters",
				"username": "Username must be at least 3 characters",
				"password": "Password must be at least 6 characters",
			},
		},
		{
			name: "bad email",
			in:   RegistrationInput{Name: "Ann", Username: "ann", Email: "not-an-email", Password: "secret"},
			want: Errors{"email": "Email format is not valid"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Validate())
		})
	}
}

func TestLoginInput(t *testing.T) {
	assert.Nil(t, LoginInput{Email: "user@example.com", Password: "123456"}.Validate())
	assert.Equal(t, Errors{"password": "Password must be at least 6 characters"},
		LoginInput{Email: "user@example.com", Password: "12345"}.Validate())
	assert.Equal(t, Errors{"email": "Email format is not valid"},
		LoginInput{Email: "not-an-email", Password: "123456"}.Validate())
}

func TestPostDescription(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"", MsgRequired},
		{"   ", MsgRequired},
		{EmptyParagraph, MsgRequired},
		{"<p></p>", "Description must be at least 3 characters"},
		{"<p>ab</p>", "Description must be at least 3 characters"},
		{"<p>  a b  </p>", ""},
		{"<p>abc</p>", ""},
		{"<p><strong>a</strong>b<em>c</em></p>", ""},
		{"<p>&amp;&amp;</p>", "Description must be at least 3 characters"},
	}
	for _, tt := range tests {
		in := validPost()
		in.Desc = tt.desc
		assert.Equal(t, tt.want, in.Validate()["desc"], "desc %q", tt.desc)
	}
}

func TestPostTags(t *testing.T) {
	many := strings.TrimSuffix(strings.Repeat("tag,", 21), ",")
	twenty := strings.TrimSuffix(strings.Repeat("tag,", 20), ",")
	tests := []struct {
		tags string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"a,bb,ccc", "Tags must be 2–20 characters each, separated by commas"},
		{"bb,ccc", ""},
		{"go, , web,", ""},
		{twenty, ""},
		{many, "Maximum 20 tags allowed"},
		{strings.Repeat("x", 21), "Tags must be 2–20 characters each, separated by commas"},
	}
	for _, tt := range tests {
		in := validPost()
		in.Tags = tt.tags
		assert.Equal(t, tt.want, in.Validate()["tags"], "tags %q", tt.tags)
	}

	assert.Equal(t, []string{"a", "bb", "ccc"}, ParseTags("a,bb,ccc"))
	assert.Equal(t, []string{"go", "web"}, ParseTags(" go , ,web, "))
	assert.Nil(t, ParseTags(""))
}

func TestPostThumbnail(t *testing.T) {
	in := validPost()
	assert.Nil(t, in.Validate())

	in.Thumbnail = nil
	assert.Equal(t, Errors{"thumbnail": "Image is required"}, in.Validate())

	for _, ct := range upload.AllowedTypes {
		in.Thumbnail = &upload.File{ContentType: ct}
		assert.Nil(t, in.Validate(), ct)
	}

	in.Thumbnail = &upload.File{Filename: "cv.pdf", ContentType: "application/pdf"}
	assert.Equal(t, Errors{"thumbnail": "Only images are allowed: jpg, jpeg, png, webp, heic, heif"}, in.Validate())
}

func TestProfileEditInput(t *testing.T) {
	base := ProfileEditInput{Name: "Ann Lee", Username: "ann", Email: "ann@example.com"}

	t.Run("untouched passwords pass", func(t *testing.T) {
		in := base
		in.CurrentPassword, in.NewPassword, in.ConfirmPassword = Optional(""), Optional(""), Optional("")
		assert.Nil(t, in.Validate())
	})

	t.Run("mismatch", func(t *testing.T) {
		in := base
		in.NewPassword, in.ConfirmPassword = Optional("secret1"), Optional("secret2")
		assert.Equal(t, Errors{"confirmPassword": "Passwords must match"}, in.Validate())
	})

	t.Run("empty confirmation is absent", func(t *testing.T) {
		in := base
		in.NewPassword, in.ConfirmPassword = Optional("secret1"), Optional("")
		assert.Nil(t, in.Validate())
	})

	t.Run("confirmation without new password", func(t *testing.T) {
		in := base
		in.ConfirmPassword = ptr("secret1")
		assert.Equal(t, Errors{"confirmPassword": "Passwords must match"}, in.Validate())
	})

	t.Run("short passwords", func(t *testing.T) {
		in := base
		in.CurrentPassword, in.NewPassword, in.ConfirmPassword = Optional("12345"), Optional("abcde"), Optional("abcde")
		assert.Equal(t, Errors{
			"currentPassword": "Password must be at least 6 characters",
			"newPassword":     "New password must be at least 6 characters",
		}, in.Validate())
	})

	t.Run("whitespace is present, not absent", func(t *testing.T) {
		in := base
		in.NewPassword = Optional("   ")
		assert.Equal(t, "New password must be at least 6 characters", in.Validate()["newPassword"])
	})
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(""))
	assert.Equal(t, "abc", *Optional(" abc "))
	assert.Equal(t, "", *Optional("  "))
}

func TestErrors(t *testing.T) {
	var none Errors
	assert.NoError(t, none.Err())

	errs := Errors{"username": "Username must be at least 3 characters", "email": "Email format is not valid"}
	field, msg := errs.First()
	assert.Equal(t, "email", field)
	assert.Equal(t, "Email format is not valid", msg)
	assert.EqualError(t, errs.Err(), "email: Email format is not valid (and 1 more)")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "", PlainText(EmptyParagraph))
	assert.Equal(t, "Hello world", PlainText("<h1>Hello</h1> <p>world</p>"))
	assert.Equal(t, "a < b", PlainText("<p>a &lt; b</p>"))
}
