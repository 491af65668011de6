// Package web serves the form pages. Each form is validated locally before
// anything is sent to the API; failed results are mapped back onto the
// fields and the page is rendered again.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inkblog/client"
	"inkblog/form"
	"inkblog/logging"
	"inkblog/models"
	"inkblog/upload"
	"inkblog/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	MsgInFlight    = "A submission is already in progress"
	MsgUnreachable = "The server could not be reached, please try again"
	MsgUpdated     = "Profile updated"
	MsgNoChanges   = "Nothing to update"
)

type Server struct {
	API           *client.Client
	Log           *slog.Logger
	SessionTTL    time.Duration
	SecureCookies bool

	inflight *guard
}

func New(api *client.Client, log *slog.Logger, sessionTTL time.Duration) *Server {
	return &Server{API: api, Log: log, SessionTTL: sessionTTL, inflight: newGuard()}
}

func templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"plain": validation.PlainText,
		"field": newFieldView,
		// accept mirrors the upload allow-list for file inputs
		"accept": func() string { return strings.Join(upload.AllowedTypes, ",") },
	}).ParseFS(templatesFS, "templates/*.html"))
}

func (s *Server) Router() *gin.Engine {
	if s.inflight == nil {
		s.inflight = newGuard()
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(s.Log), s.identify())
	r.SetHTMLTemplate(templates())

	r.GET("/", s.home)
	r.GET("/register", s.registerPage)
	r.POST("/register", s.register)
	r.GET("/signin", s.signInPage)
	r.POST("/signin", s.signIn)
	r.POST("/signout", s.signOut)

	r.GET("/posts/new", requireSession, s.newPostPage)
	r.POST("/posts/new", requireSession, s.createPost)

	r.GET("/users/:id", s.profilePage)
	r.POST("/users/:id", requireSession, s.ownProfile, s.editProfile)
	r.POST("/users/:id/avatar", requireSession, s.ownProfile, s.changeAvatar)

	return r
}

// page is the data every template receives.
type page struct {
	Title   string
	Session *session
	Notice  string
	Form    formView
	Avatar  formView
	Posts   []models.Post
	User    *models.User
	Own     bool
}

type formView struct {
	Values map[string]string
	Errors map[string]string
}

// fieldView feeds the shared "field" template.
type fieldView struct {
	Form              formView
	Name, Label, Type string
}

func newFieldView(f formView, name, label, typ string) fieldView {
	return fieldView{Form: f, Name: name, Label: label, Type: typ}
}

// view exposes a form to a template. Fields listed in hide are never echoed
// back.
func view(st form.State, hide ...string) formView {
	v := formView{Values: st.Values(), Errors: st.Errors()}
	for _, f := range hide {
		v.Values[f] = ""
	}
	return v
}

func (s *Server) render(c *gin.Context, status int, name string, p page) {
	p.Session = currentSession(c)
	c.HTML(status, name, p)
}

// acquire claims the in-flight slot for this visitor and form. The caller
// releases it with the returned func.
func (s *Server) acquire(c *gin.Context, formName string) (func(), bool) {
	key := c.GetString(visitorKey) + ":" + formName
	if !s.inflight.acquire(key) {
		return nil, false
	}
	return func() { s.inflight.release(key) }, true
}

// fill copies posted values onto a fresh form.
func fill(st form.State, c *gin.Context, fields ...string) form.State {
	for _, f := range fields {
		st = st.Change(f, c.PostForm(f))
	}
	return st
}

// stage buffers a posted file onto the form without filtering it; the
// form's own schema decides whether it is acceptable.
func stage(st form.State, c *gin.Context, field string) (form.State, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return st.Unstage(field), nil
	}
	if err != nil {
		return st, err
	}
	f, err := readFile(field, fh)
	if err != nil {
		return st, err
	}
	return st.Stage(field, f), nil
}

func readFile(field string, fh *multipart.FileHeader) (*upload.File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &upload.File{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}
