package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"inkblog/auth"
	"inkblog/cache"
	"inkblog/models"
	"inkblog/repository"
	"inkblog/storage"
	"inkblog/upload"
	"inkblog/validation"
)

func (s *Server) register(c *gin.Context) {
	var req models.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgBadRequest, "")
		return
	}
	in := validation.RegistrationInput(req).Normalized()
	if errs := in.Validate(); errs != nil {
		field, msg := errs.First()
		fail(c, http.StatusBadRequest, msg, field)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.internal(c, "hash password", err)
		return
	}
	u := &models.User{
		ID:           ksuid.New().String(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.Users.Create(c.Request.Context(), u); err != nil {
		s.userWriteError(c, "create user", err)
		return
	}
	ok(c, http.StatusCreated, u)
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgBadRequest, "")
		return
	}
	in := validation.LoginInput(req).Normalized()
	if errs := in.Validate(); errs != nil {
		field, msg := errs.First()
		fail(c, http.StatusBadRequest, msg, field)
		return
	}

	ctx := c.Request.Context()
	u, err := s.Users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// no field: the message flags both email and password
		fail(c, http.StatusUnauthorized, MsgBadCredentials, "")
		return
	case err != nil:
		s.internal(c, "load user", err)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, in.Password); err != nil {
		fail(c, http.StatusUnauthorized, MsgBadCredentials, "")
		return
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		s.internal(c, "issue token", err)
		return
	}
	ok(c, http.StatusOK, models.Session{Token: token, User: u})
}

// getUser is cache-aside on the user record.
func (s *Server) getUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	key := cache.UserKey(id)

	var u models.User
	if err := s.Cache.Fetch(ctx, key, &u); err == nil {
		c.Header("X-Cache", "HIT")
		ok(c, http.StatusOK, &u)
		return
	}

	found, err := s.Users.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, MsgUserNotFound, "")
		return
	case err != nil:
		s.internal(c, "load user", err)
		return
	}
	if err := s.Cache.Store(ctx, key, found); err != nil {
		s.Log.WarnContext(ctx, "cache store failed", "key", key, "error", err)
	}
	c.Header("X-Cache", "MISS")
	ok(c, http.StatusOK, found)
}

// patchMe applies the sparse profile patch. Absent fields keep their stored
// values; the merged record goes through the same profile rules the form
// uses. confirmPassword is checked only when sent.
func (s *Server) patchMe(c *gin.Context) {
	var req models.PatchUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgBadRequest, "")
		return
	}
	ctx := c.Request.Context()
	id := auth.UserID(c)

	cur, err := s.Users.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, MsgUserNotFound, "")
		return
	case err != nil:
		s.internal(c, "load user", err)
		return
	}

	in := validation.ProfileEditInput{
		Name:            pick(req.Name, cur.Name),
		Username:        pick(req.Username, cur.Username),
		Email:           pick(req.Email, cur.Email),
		CurrentPassword: optional(req.CurrentPassword),
		NewPassword:     optional(req.NewPassword),
		ConfirmPassword: optional(req.ConfirmPassword),
	}.Normalized()
	if errs := in.Validate(); errs != nil {
		field, msg := errs.First()
		fail(c, http.StatusBadRequest, msg, field)
		return
	}

	upd := models.UserUpdate{
		Name:     changed(in.Name, cur.Name),
		Username: changed(in.Username, cur.Username),
		Email:    changed(in.Email, cur.Email),
	}
	if in.NewPassword != nil {
		if in.CurrentPassword == nil {
			fail(c, http.StatusBadRequest, MsgCurrentRequired, "currentPassword")
			return
		}
		if err := auth.CheckPassword(cur.PasswordHash, *in.CurrentPassword); err != nil {
			fail(c, http.StatusBadRequest, MsgBadCurrentPass, "currentPassword")
			return
		}
		hash, err := auth.HashPassword(*in.NewPassword)
		if err != nil {
			s.internal(c, "hash password", err)
			return
		}
		upd.PasswordHash = &hash
	}

	u, err := s.Users.Update(ctx, id, upd)
	if err != nil {
		s.userWriteError(c, "update user", err)
		return
	}
	s.invalidateUser(c, id)
	ok(c, http.StatusOK, u)
}

func (s *Server) changeAvatar(c *gin.Context) {
	f, found := upload.FromContext(c)
	if !found {
		fail(c, http.StatusBadRequest, MsgImageRequired, "avatar")
		return
	}
	ctx := c.Request.Context()
	id := auth.UserID(c)

	cur, err := s.Users.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, MsgUserNotFound, "")
		return
	case err != nil:
		s.internal(c, "load user", err)
		return
	}

	url, err := s.Objects.Upload(ctx, storage.NewKey("avatars", f.Ext()), f.ContentType, f.Reader())
	if err != nil {
		s.internal(c, "store avatar", err)
		return
	}
	u, err := s.Users.SetAvatar(ctx, id, url)
	if err != nil {
		s.internal(c, "set avatar", err)
		return
	}
	if key, own := s.Objects.KeyFromURL(cur.Avatar); own {
		if err := s.Objects.Delete(ctx, key); err != nil {
			s.Log.WarnContext(ctx, "delete old avatar failed", "key", key, "error", err)
		}
	}
	s.invalidateUser(c, id)
	ok(c, http.StatusOK, u)
}

func (s *Server) userWriteError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		fail(c, http.StatusConflict, MsgUsernameTaken, "username")
	case errors.Is(err, repository.ErrEmailTaken):
		fail(c, http.StatusConflict, MsgEmailTaken, "email")
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, MsgUserNotFound, "")
	default:
		s.internal(c, op, err)
	}
}

func (s *Server) invalidateUser(c *gin.Context, id string) {
	ctx := c.Request.Context()
	if err := s.Cache.Invalidate(ctx, cache.UserKey(id)); err != nil {
		s.Log.WarnContext(ctx, "cache invalidate failed", "user", id, "error", err)
	}
}

func pick(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	return validation.Optional(*v)
}

// changed returns nil when v equals the stored value.
func changed(v, stored string) *string {
	if v == stored {
		return nil
	}
	return &v
}
