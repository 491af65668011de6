package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkblog/upload"
	"inkblog/validation"
)

func nameSchema(v Values, _ Files) validation.Errors {
	return validation.RegistrationInput{
		Name:     v["name"],
		Username: v["username"],
		Email:    "ann@example.com",
		Password: "secret",
	}.Validate()
}

func TestChangeRevalidatesOneField(t *testing.T) {
	s := New(nameSchema, Values{"name": "", "username": ""})

	s1 := s.Change("name", "An")
	fe, ok := s1.Error("name")
	require.True(t, ok)
	assert.Equal(t, "Full name must be at least 3 characters", fe.Message)
	assert.Equal(t, Client, fe.Origin)
	_, ok = s1.Error("username")
	assert.False(t, ok, "untouched field must not be validated")

	s2 := s1.Change("name", "Ann")
	_, ok = s2.Error("name")
	assert.False(t, ok)

	// the earlier state is unchanged
	_, ok = s1.Error("name")
	assert.True(t, ok)
	assert.Equal(t, "", s.Value("name"))
}

func TestValidateReplacesServerErrors(t *testing.T) {
	s := New(nameSchema, Values{"name": "Ann", "username": "ann"}).
		SetServerError("username", "Username already taken")

	next, ok := s.Validate()
	assert.True(t, ok)
	assert.Empty(t, next.Errors())
	assert.Equal(t, map[string]string{"username": "Username already taken"}, s.Errors())

	bad, ok := New(nameSchema, Values{"name": "", "username": "a"}).Validate()
	assert.False(t, ok)
	assert.Equal(t, map[string]string{
		"name":     validation.MsgRequired,
		"username": "Username must be at least 3 characters",
	}, bad.Errors())
}

func TestFocusClearsOnlyServerErrors(t *testing.T) {
	s := New(nameSchema, Values{"name": "", "username": "ann"}).
		Change("name", "A").
		SetServerError("username", "Username already taken")

	s = s.Focus("username").Focus("name")
	_, ok := s.Error("username")
	assert.False(t, ok)
	_, ok = s.Error("name")
	assert.True(t, ok)
}

func TestDirty(t *testing.T) {
	s := New(nil, Values{"name": "Ann", "email": "ann@example.com", "newPassword": ""})
	assert.False(t, s.IsDirty())

	s = s.Change("name", "Anna")
	assert.Equal(t, []string{"name"}, s.Dirty())

	s = s.Change("name", "Ann").Change("newPassword", "secret1")
	assert.Equal(t, []string{"newPassword"}, s.Dirty())

	s = s.Reset(Values{"name": "Ann", "email": "ann@example.com", "newPassword": ""})
	assert.False(t, s.IsDirty())
}

func TestStage(t *testing.T) {
	f := &upload.File{Filename: "me.png", ContentType: "image/png"}
	s := New(nil, Values{}).SetServerError("avatar", "boom").Stage("avatar", f)
	assert.Same(t, f, s.File("avatar"))
	assert.Empty(t, s.Errors())
	assert.False(t, s.IsDirty(), "staged files are not field edits")

	s = s.Unstage("avatar")
	assert.Nil(t, s.File("avatar"))
}

func TestBeginGuardsInFlight(t *testing.T) {
	s, err := New(nil, Values{}).Begin()
	require.NoError(t, err)
	assert.True(t, s.Submitting())

	_, err = s.Begin()
	assert.ErrorIs(t, err, ErrInFlight)

	s, err = s.Finish().Begin()
	assert.NoError(t, err)
	assert.True(t, s.Submitting())
}
