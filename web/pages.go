package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkblog/form"
	"inkblog/models"
	"inkblog/submit"
)

var (
	registrationFields = []string{submit.FieldName, submit.FieldUsername, submit.FieldEmail, submit.FieldPassword}
	loginFields        = []string{submit.FieldEmail, submit.FieldPassword}
	postFields         = []string{submit.FieldTitle, submit.FieldDesc, submit.FieldTags}
	profileFields      = []string{
		submit.FieldName, submit.FieldUsername, submit.FieldEmail,
		submit.FieldCurrentPassword, submit.FieldNewPassword, submit.FieldConfirmPassword,
	}
	passwordFields = []string{submit.FieldPassword, submit.FieldCurrentPassword, submit.FieldNewPassword, submit.FieldConfirmPassword}
)

// settle turns a submission's end into a status code and page notice.
// done reports that a redirect was already written.
func settle(c *gin.Context, out submit.Outcome, err error) (status int, notice string, done bool) {
	switch {
	case errors.Is(err, form.ErrInFlight):
		return http.StatusConflict, MsgInFlight, false
	case errors.Is(err, submit.ErrInvalid):
		return http.StatusUnprocessableEntity, "", false
	case err != nil:
		return http.StatusBadGateway, MsgUnreachable, false
	case out.Redirect != "":
		c.Redirect(http.StatusSeeOther, out.Redirect)
		return 0, "", true
	case out.Dispatched && !out.Result.Success:
		if out.Unmatched {
			notice = out.Result.Message
		}
		return http.StatusUnprocessableEntity, notice, false
	}
	return http.StatusOK, "", false
}

func (s *Server) submitter(c *gin.Context) *submit.Submitter {
	api := s.API
	if sess := currentSession(c); sess != nil {
		api = api.WithToken(sess.Token)
	}
	return submit.New(api, s.Log)
}

func (s *Server) home(c *gin.Context) {
	p := page{Title: "Posts"}
	posts, err := s.API.ListPosts(c.Request.Context())
	if err != nil {
		s.Log.WarnContext(c.Request.Context(), "list posts failed", "error", err)
		p.Notice = MsgUnreachable
	}
	p.Posts = posts
	s.render(c, http.StatusOK, "home.html", p)
}

func (s *Server) registerPage(c *gin.Context) {
	s.render(c, http.StatusOK, "register.html", page{Title: "Register", Form: view(submit.NewRegistration())})
}

func (s *Server) register(c *gin.Context) {
	st := fill(submit.NewRegistration(), c, registrationFields...)
	release, ok := s.acquire(c, "register")
	if !ok {
		s.render(c, http.StatusConflict, "register.html", page{Title: "Register", Form: view(st, passwordFields...), Notice: MsgInFlight})
		return
	}
	defer release()

	st, out, err := s.submitter(c).Register(c.Request.Context(), st)
	status, notice, done := settle(c, out, err)
	if done {
		return
	}
	s.render(c, status, "register.html", page{Title: "Register", Form: view(st, passwordFields...), Notice: notice})
}

func (s *Server) signInPage(c *gin.Context) {
	s.render(c, http.StatusOK, "signin.html", page{Title: "Sign in", Form: view(submit.NewLogin())})
}

func (s *Server) signIn(c *gin.Context) {
	st := fill(submit.NewLogin(), c, loginFields...)
	release, ok := s.acquire(c, "signin")
	if !ok {
		s.render(c, http.StatusConflict, "signin.html", page{Title: "Sign in", Form: view(st, passwordFields...), Notice: MsgInFlight})
		return
	}
	defer release()

	st, out, err := s.submitter(c).SignIn(c.Request.Context(), st)
	if err == nil && out.Session != nil && out.Session.User != nil {
		serr := s.setSession(c, session{Username: out.Session.User.Username, Token: out.Session.Token})
		if serr != nil {
			s.Log.ErrorContext(c.Request.Context(), "set session failed", "error", serr)
			s.render(c, http.StatusInternalServerError, "signin.html", page{Title: "Sign in", Form: view(st, passwordFields...), Notice: MsgUnreachable})
			return
		}
	}
	status, notice, done := settle(c, out, err)
	if done {
		return
	}
	s.render(c, status, "signin.html", page{Title: "Sign in", Form: view(st, passwordFields...), Notice: notice})
}

func (s *Server) signOut(c *gin.Context) {
	s.clearSession(c)
	c.Redirect(http.StatusSeeOther, submit.RouteSignIn)
}

func (s *Server) newPostPage(c *gin.Context) {
	s.render(c, http.StatusOK, "post_new.html", page{Title: "New post", Form: view(submit.NewPost())})
}

func (s *Server) createPost(c *gin.Context) {
	st := fill(submit.NewPost(), c, postFields...)
	st, err := stage(st, c, submit.FieldThumbnail)
	if err != nil {
		s.render(c, http.StatusBadRequest, "post_new.html", page{Title: "New post", Form: view(st), Notice: "The upload could not be read"})
		return
	}
	release, ok := s.acquire(c, "create-post")
	if !ok {
		s.render(c, http.StatusConflict, "post_new.html", page{Title: "New post", Form: view(st), Notice: MsgInFlight})
		return
	}
	defer release()

	st, out, err := s.submitter(c).CreatePost(c.Request.Context(), st)
	status, notice, done := settle(c, out, err)
	if done {
		return
	}
	s.render(c, status, "post_new.html", page{Title: "New post", Form: view(st), Notice: notice})
}

func (s *Server) profilePage(c *gin.Context) {
	u, err := s.API.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.render(c, http.StatusNotFound, "user.html", page{Title: "Profile", Notice: "User not found"})
		return
	}
	s.render(c, http.StatusOK, "user.html", s.profileView(c, u, submit.NewProfile(baseline(u)), submit.NewAvatar()))
}

func (s *Server) ownProfile(c *gin.Context) {
	if currentSession(c).UserID != c.Param("id") {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.Next()
}

// editProfile loads the stored record as baseline so only fields that
// differ from it are sent.
func (s *Server) editProfile(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	u, err := s.API.GetUser(ctx, id)
	if err != nil {
		s.render(c, http.StatusBadGateway, "user.html", page{Title: "Profile", Notice: MsgUnreachable})
		return
	}
	st := fill(submit.NewProfile(baseline(u)), c, profileFields...)
	release, ok := s.acquire(c, "edit-profile")
	if !ok {
		p := s.profileView(c, u, st, submit.NewAvatar())
		p.Notice = MsgInFlight
		s.render(c, http.StatusConflict, "user.html", p)
		return
	}
	defer release()

	st, out, err := s.submitter(c).EditProfile(ctx, id, st)
	status, notice, _ := settle(c, out, err)
	switch {
	case err == nil && !out.Dispatched:
		notice = MsgNoChanges
	case err == nil && out.Result.Success:
		notice = MsgUpdated
	}
	if out.User != nil {
		u = out.User
	}
	p := s.profileView(c, u, st, submit.NewAvatar())
	p.Notice = notice
	s.render(c, status, "user.html", p)
}

func (s *Server) changeAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	u, err := s.API.GetUser(ctx, id)
	if err != nil {
		s.render(c, http.StatusBadGateway, "user.html", page{Title: "Profile", Notice: MsgUnreachable})
		return
	}
	profile := submit.NewProfile(baseline(u))

	st, err := stage(submit.NewAvatar(), c, submit.FieldAvatar)
	if err != nil {
		p := s.profileView(c, u, profile, st)
		p.Notice = "The upload could not be read"
		s.render(c, http.StatusBadRequest, "user.html", p)
		return
	}
	if st.File(submit.FieldAvatar) == nil {
		p := s.profileView(c, u, profile, st)
		p.Notice = "No image selected"
		s.render(c, http.StatusUnprocessableEntity, "user.html", p)
		return
	}
	release, ok := s.acquire(c, "change-avatar")
	if !ok {
		p := s.profileView(c, u, profile, st)
		p.Notice = MsgInFlight
		s.render(c, http.StatusConflict, "user.html", p)
		return
	}
	defer release()

	st, out, err := s.submitter(c).ChangeAvatar(ctx, id, st)
	status, notice, _ := settle(c, out, err)
	if out.User != nil {
		u = out.User
		profile = submit.NewProfile(baseline(u))
	}
	if err == nil && out.Result.Success {
		notice = MsgUpdated
	}
	p := s.profileView(c, u, profile, st)
	p.Notice = notice
	s.render(c, status, "user.html", p)
}

// profileView also lists the user's posts; a failed listing leaves the
// section empty.
func (s *Server) profileView(c *gin.Context, u *models.User, profile, avatar form.State) page {
	sess := currentSession(c)
	posts, err := s.API.ListPostsByAuthor(c.Request.Context(), u.ID)
	if err != nil {
		s.Log.WarnContext(c.Request.Context(), "list user posts failed", "user_id", u.ID, "error", err)
	}
	return page{
		Title:  u.Name,
		User:   u,
		Own:    sess != nil && sess.UserID == u.ID,
		Form:   view(profile, passwordFields...),
		Avatar: view(avatar),
		Posts:  posts,
	}
}

func baseline(u *models.User) form.Values {
	return submit.ProfileBaseline(u.Name, u.Username, u.Email)
}
