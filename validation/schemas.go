package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"inkblog/upload"
)

type RegistrationInput struct {
	Name     string `json:"name" validate:"required,min=3"`
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var registrationMessages = map[string]string{
	"name.min":     "Full name must be at least 3 characters",
	"username.min": "Username must be at least 3 characters",
	"password.min": "Password must be at least 6 characters",
}

func (in RegistrationInput) Normalized() RegistrationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	return in
}

func (in RegistrationInput) Validate() Errors {
	return run(in.Normalized(), registrationMessages)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var loginMessages = map[string]string{
	"password.min": "Password must be at least 6 characters",
}

func (in LoginInput) Normalized() LoginInput {
	in.Email = strings.TrimSpace(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	return in
}

func (in LoginInput) Validate() Errors {
	return run(in.Normalized(), loginMessages)
}

// PostInput is the create-post form. Desc is rich-text HTML and is never
// trimmed; its rules look at the plain text inside the markup.
type PostInput struct {
	Title     string       `json:"title" validate:"required,min=3"`
	Desc      string       `json:"desc" validate:"richtext,plaintextmin=3"`
	Tags      string       `json:"tags" validate:"omitempty,maxtags=20,taglen"`
	Thumbnail *upload.File `json:"thumbnail" validate:"-"`
}

var postMessages = map[string]string{
	"title.min":          "Title must be at least 3 characters",
	"desc.richtext":      MsgRequired,
	"desc.plaintextmin":  "Description must be at least 3 characters",
	"tags.maxtags":       "Maximum 20 tags allowed",
	"tags.taglen":        "Tags must be 2–20 characters each, separated by commas",
	"thumbnail.required": "Image is required",
	"thumbnail.mime":     upload.MsgNotImage,
}

func (in PostInput) Normalized() PostInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = strings.TrimSpace(in.Tags)
	return in
}

func (in PostInput) Validate() Errors {
	return run(in.Normalized(), postMessages)
}

func postStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(PostInput)
	switch {
	case in.Thumbnail == nil:
		sl.ReportError(in.Thumbnail, "thumbnail", "Thumbnail", "required", "")
	case upload.ImageFilter(in.Thumbnail.ContentType) != nil:
		sl.ReportError(in.Thumbnail.ContentType, "thumbnail", "Thumbnail", "mime", "")
	}
}

// ProfileEditInput is the profile form. The password fields are optional:
// build them with Optional so that an empty field is absent.
type ProfileEditInput struct {
	Name            string  `json:"name" validate:"required,min=3"`
	Username        string  `json:"username" validate:"required,min=3"`
	Email           string  `json:"email" validate:"required,email"`
	CurrentPassword *string `json:"currentPassword" validate:"omitnil,min=6"`
	NewPassword     *string `json:"newPassword" validate:"omitnil,min=6"`
	ConfirmPassword *string `json:"confirmPassword"`
}

var profileMessages = map[string]string{
	"name.min":              "Full name must be at least 3 characters",
	"username.min":          "Username must be at least 3 characters",
	"currentPassword.min":   "Password must be at least 6 characters",
	"newPassword.min":       "New password must be at least 6 characters",
	"confirmPassword.match": "Passwords must match",
}

func (in ProfileEditInput) Normalized() ProfileEditInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

func (in ProfileEditInput) Validate() Errors {
	return run(in.Normalized(), profileMessages)
}

// An absent confirmation passes even when a new password is present; only a
// confirmation that was actually typed is compared.
func profileStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(ProfileEditInput)
	if in.ConfirmPassword == nil {
		return
	}
	if in.NewPassword == nil || *in.NewPassword != *in.ConfirmPassword {
		sl.ReportError(in.ConfirmPassword, "confirmPassword", "ConfirmPassword", "match", "")
	}
}
