package submit

import (
	"inkblog/form"
	"inkblog/upload"
	"inkblog/validation"
)

// Field names, shared by the pages, the payloads and the schemas.
const (
	FieldName            = "name"
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldTitle           = "title"
	FieldDesc            = "desc"
	FieldTags            = "tags"
	FieldThumbnail       = "thumbnail"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldConfirmPassword = "confirmPassword"
	FieldAvatar          = "avatar"
)

// Destinations after a successful submission.
const (
	RouteHome    = "/"
	RouteListing = "/"
	RouteSignIn  = "/signin"
)

func registrationInput(v form.Values) validation.RegistrationInput {
	return validation.RegistrationInput{
		Name:     v[FieldName],
		Username: v[FieldUsername],
		Email:    v[FieldEmail],
		Password: v[FieldPassword],
	}
}

func loginInput(v form.Values) validation.LoginInput {
	return validation.LoginInput{Email: v[FieldEmail], Password: v[FieldPassword]}
}

func postInput(v form.Values, f form.Files) validation.PostInput {
	return validation.PostInput{
		Title:     v[FieldTitle],
		Desc:      v[FieldDesc],
		Tags:      v[FieldTags],
		Thumbnail: f[FieldThumbnail],
	}
}

// profileInput re-applies the empty-means-absent coercion on every call.
func profileInput(v form.Values) validation.ProfileEditInput {
	return validation.ProfileEditInput{
		Name:            v[FieldName],
		Username:        v[FieldUsername],
		Email:           v[FieldEmail],
		CurrentPassword: validation.Optional(v[FieldCurrentPassword]),
		NewPassword:     validation.Optional(v[FieldNewPassword]),
		ConfirmPassword: validation.Optional(v[FieldConfirmPassword]),
	}
}

func RegistrationSchema(v form.Values, _ form.Files) validation.Errors {
	return registrationInput(v).Validate()
}

func LoginSchema(v form.Values, _ form.Files) validation.Errors {
	return loginInput(v).Validate()
}

func PostSchema(v form.Values, f form.Files) validation.Errors {
	return postInput(v, f).Validate()
}

func ProfileSchema(v form.Values, _ form.Files) validation.Errors {
	return profileInput(v).Validate()
}

// AvatarSchema only checks the staged file's type; an empty avatar form is
// not an error, there is simply nothing to send.
func AvatarSchema(_ form.Values, f form.Files) validation.Errors {
	file := f[FieldAvatar]
	if file == nil {
		return nil
	}
	if err := upload.ImageFilter(file.ContentType); err != nil {
		return validation.Errors{FieldAvatar: upload.MsgNotImage}
	}
	return nil
}

func NewRegistration() form.State {
	return form.New(RegistrationSchema, form.Values{
		FieldName: "", FieldUsername: "", FieldEmail: "", FieldPassword: "",
	})
}

func NewLogin() form.State {
	return form.New(LoginSchema, form.Values{FieldEmail: "", FieldPassword: ""})
}

func NewPost() form.State {
	return form.New(PostSchema, form.Values{FieldTitle: "", FieldDesc: "", FieldTags: ""})
}

func NewAvatar() form.State {
	return form.New(AvatarSchema, form.Values{})
}

// ProfileBaseline is the profile form as loaded for a user: the text fields
// from the record, the password fields empty.
func ProfileBaseline(name, username, email string) form.Values {
	return form.Values{
		FieldName:            name,
		FieldUsername:        username,
		FieldEmail:           email,
		FieldCurrentPassword: "",
		FieldNewPassword:     "",
		FieldConfirmPassword: "",
	}
}

func NewProfile(baseline form.Values) form.State {
	return form.New(ProfileSchema, baseline)
}
