// Package api serves the write operations the form pages consume. Every
// response is a models.Result envelope.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkblog/auth"
	"inkblog/logging"
	"inkblog/models"
	"inkblog/search"
	"inkblog/upload"
)

const (
	MsgUsernameTaken   = "Username already taken"
	MsgEmailTaken      = "Email already in use"
	MsgBadCredentials  = "Invalid email or password"
	MsgBadCurrentPass  = "Invalid current password"
	MsgCurrentRequired = "Current password is required to set a new one"
	MsgUserNotFound    = "User not found"
	MsgPostNotFound    = "Post not found"
	MsgImageRequired   = "Image is required"
	MsgInternal        = "Internal server error"
	MsgBadRequest      = "Invalid request body"

	listLimit = 50
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	SetAvatar(ctx context.Context, id, url string) (*models.User, error)
}

type PostStore interface {
	CreateWithLogTx(ctx context.Context, p models.NewPost) (*models.Post, error)
	GetByID(ctx context.Context, id int) (*models.Post, error)
	List(ctx context.Context, limit int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	SearchByTag(ctx context.Context, tag string) ([]models.Post, error)
}

type Cache interface {
	Fetch(ctx context.Context, key string, out any) error
	Store(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context, key string) error
}

type Index interface {
	IndexPost(ctx context.Context, p *models.Post) error
	Search(ctx context.Context, q string) ([]search.Hit, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type Server struct {
	Users   UserStore
	Posts   PostStore
	Cache   Cache
	Index   Index
	Objects ObjectStore
	Tokens  *auth.Tokens
	Log     *slog.Logger

	ThumbnailMaxBytes int64
}

// Router returns the engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(s.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Result{Success: true})
	})

	requireUser := s.Tokens.RequireUser()

	a := r.Group("/api")
	a.POST("/auth/register", s.register)
	a.POST("/auth/login", s.login)

	a.GET("/users/:id", s.getUser)
	a.GET("/users/:id/posts", s.listUserPosts)
	a.PATCH("/users/me", requireUser, s.patchMe)
	a.PATCH("/users/me/avatar", requireUser, upload.Avatar().Single(), s.changeAvatar)

	a.GET("/posts", s.listPosts)
	a.GET("/posts/search", s.searchPosts)
	a.GET("/posts/:id", s.getPost)
	a.POST("/posts", requireUser, upload.Thumbnail(s.ThumbnailMaxBytes).Single(), s.createPost)

	return r
}

func ok(c *gin.Context, status int, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		c.Error(err)
		fail(c, http.StatusInternalServerError, MsgInternal, "")
		return
	}
	c.JSON(status, models.Result{Success: true, Data: b})
}

func fail(c *gin.Context, status int, msg, field string) {
	c.JSON(status, models.Result{Success: false, Message: msg, Field: field})
}

func (s *Server) internal(c *gin.Context, op string, err error) {
	c.Error(err)
	s.Log.ErrorContext(c.Request.Context(), op+" failed", "error", err)
	fail(c, http.StatusInternalServerError, MsgInternal, "")
}
