// Package submit turns validated forms into write operations: it builds the
// payload each operation expects, dispatches it, and maps a failed result back
// onto the form.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkblog/form"
	"inkblog/models"
)

// ErrInvalid is returned, together with the annotated form, when client-side
// validation stopped the submission before any dispatch.
var ErrInvalid = errors.New("submit: form has validation errors")

// Dispatcher is the set of backend operations the forms consume.
type Dispatcher interface {
	CreatePost(ctx context.Context, body Multipart) (models.Result, error)
	Register(ctx context.Context, req models.RegisterReq) (models.Result, error)
	SignIn(ctx context.Context, req models.LoginReq) (models.Result, error)
	PatchUser(ctx context.Context, req models.PatchUserReq) (models.Result, error)
	ChangeAvatar(ctx context.Context, body Multipart) (models.Result, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Outcome describes what a submission did and what the page should do next.
type Outcome struct {
	Dispatched bool
	Result     models.Result
	// Redirect is the route to navigate to; empty means stay.
	Redirect string
	// Session is set after a successful sign-in.
	Session *models.Session
	// User is the re-fetched record after a profile or avatar change.
	User *models.User
	// Unmatched is true when the server sent a message no field took.
	Unmatched bool
}

type Submitter struct {
	d   Dispatcher
	log *slog.Logger
}

func New(d Dispatcher, log *slog.Logger) *Submitter {
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{d: d, log: log}
}

type dispatchFunc func(ctx context.Context, st form.State) (Outcome, error)

func (s *Submitter) run(ctx context.Context, name string, st form.State, rules Rules, dispatch dispatchFunc) (form.State, Outcome, error) {
	st, err := st.Begin()
	if err != nil {
		return st, Outcome{}, err
	}
	st, ok := st.Validate()
	if !ok {
		return st.Finish(), Outcome{}, ErrInvalid
	}

	out, err := dispatch(ctx, st)
	st = st.Finish()
	if err != nil {
		s.log.WarnContext(ctx, "dispatch failed", "form", name, "error", err)
		return st, out, fmt.Errorf("submit %s: %w", name, err)
	}

	if out.Dispatched && !out.Result.Success {
		var matched bool
		st, matched = rules.Apply(st, out.Result)
		if out.Result.Message != "" && !matched {
			out.Unmatched = true
			s.log.InfoContext(ctx, "server message not attached to a field",
				"form", name, "message", out.Result.Message)
		}
	}
	return st, out, nil
}

// CreatePost sends the post form as multipart. Tags default to "" rather
// than being left out.
func (s *Submitter) CreatePost(ctx context.Context, st form.State) (form.State, Outcome, error) {
	return s.run(ctx, "create-post", st, postRules, func(ctx context.Context, st form.State) (Outcome, error) {
		in := postInput(st.Values(), st.Files()).Normalized()
		body, err := EncodeMultipart(
			[]Part{
				{Name: FieldTitle, Value: in.Title},
				{Name: FieldDesc, Value: in.Desc},
				{Name: FieldTags, Value: in.Tags},
			},
			[]FilePart{{Name: FieldThumbnail, File: in.Thumbnail}},
		)
		if err != nil {
			return Outcome{}, err
		}
		res, err := s.d.CreatePost(ctx, body)
		out := Outcome{Dispatched: true, Result: res}
		if err == nil && res.Success {
			out.Redirect = RouteListing
		}
		return out, err
	})
}

func (s *Submitter) Register(ctx context.Context, st form.State) (form.State, Outcome, error) {
	return s.run(ctx, "register", st, registrationRules, func(ctx context.Context, st form.State) (Outcome, error) {
		in := registrationInput(st.Values()).Normalized()
		res, err := s.d.Register(ctx, models.RegisterReq{
			Name:     in.Name,
			Username: in.Username,
			Email:    in.Email,
			Password: in.Password,
		})
		out := Outcome{Dispatched: true, Result: res}
		if err == nil && res.Success {
			out.Redirect = RouteSignIn
		}
		return out, err
	})
}

func (s *Submitter) SignIn(ctx context.Context, st form.State) (form.State, Outcome, error) {
	return s.run(ctx, "sign-in", st, loginRules, func(ctx context.Context, st form.State) (Outcome, error) {
		in := loginInput(st.Values()).Normalized()
		res, err := s.d.SignIn(ctx, models.LoginReq{Email: in.Email, Password: in.Password})
		out := Outcome{Dispatched: true, Result: res}
		if err != nil || !res.Success {
			return out, err
		}
		var sess models.Session
		if err := res.Decode(&sess); err != nil {
			return out, fmt.Errorf("decode session: %w", err)
		}
		out.Session = &sess
		out.Redirect = RouteHome
		return out, nil
	})
}

// EditProfile sends only the fields that differ from the loaded baseline.
// A form without changes is not dispatched at all. On success the user is
// re-fetched and becomes the new baseline.
func (s *Submitter) EditProfile(ctx context.Context, userID string, st form.State) (form.State, Outcome, error) {
	st, out, err := s.run(ctx, "edit-profile", st, profileRules, func(ctx context.Context, st form.State) (Outcome, error) {
		if !st.IsDirty() {
			return Outcome{}, nil
		}
		req := patchRequest(st)
		res, err := s.d.PatchUser(ctx, req)
		out := Outcome{Dispatched: true, Result: res}
		if err == nil && res.Success {
			out.User = s.refetch(ctx, userID)
		}
		return out, err
	})
	if out.User != nil {
		st = st.Reset(ProfileBaseline(out.User.Name, out.User.Username, out.User.Email))
	}
	return st, out, err
}

// ChangeAvatar is independent of EditProfile. The staged file is discarded
// once it has been sent, whatever the result.
func (s *Submitter) ChangeAvatar(ctx context.Context, userID string, st form.State) (form.State, Outcome, error) {
	if st.File(FieldAvatar) == nil {
		return st, Outcome{}, nil
	}
	st, out, err := s.run(ctx, "change-avatar", st, avatarRules, func(ctx context.Context, st form.State) (Outcome, error) {
		body, err := EncodeMultipart(nil, []FilePart{{Name: FieldAvatar, File: st.File(FieldAvatar)}})
		if err != nil {
			return Outcome{}, err
		}
		res, err := s.d.ChangeAvatar(ctx, body)
		out := Outcome{Dispatched: true, Result: res}
		if err == nil && res.Success {
			out.User = s.refetch(ctx, userID)
		}
		return out, err
	})
	if out.Dispatched {
		st = st.Unstage(FieldAvatar)
	}
	return st, out, err
}

func (s *Submitter) refetch(ctx context.Context, userID string) *models.User {
	u, err := s.d.GetUser(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "re-fetch user failed", "user_id", userID, "error", err)
		return nil
	}
	return u
}

func patchRequest(st form.State) models.PatchUserReq {
	in := profileInput(st.Values()).Normalized()
	var req models.PatchUserReq
	for _, field := range st.Dirty() {
		switch field {
		case FieldName:
			req.Name = &in.Name
		case FieldUsername:
			req.Username = &in.Username
		case FieldEmail:
			req.Email = &in.Email
		case FieldCurrentPassword:
			req.CurrentPassword = in.CurrentPassword
		case FieldNewPassword:
			req.NewPassword = in.NewPassword
		case FieldConfirmPassword:
			req.ConfirmPassword = in.ConfirmPassword
		}
	}
	return req
}
