package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"inkblog/auth"
	"inkblog/cache"
	"inkblog/models"
	"inkblog/repository"
	"inkblog/storage"
	"inkblog/upload"
	"inkblog/validation"
)

func (s *Server) createPost(c *gin.Context) {
	var req models.CreatePostReq
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, MsgBadRequest, "")
		return
	}
	thumb, _ := upload.FromContext(c)

	in := validation.PostInput{
		Title:     req.Title,
		Desc:      req.Desc,
		Tags:      req.Tags,
		Thumbnail: thumb,
	}.Normalized()
	if errs := in.Validate(); errs != nil {
		field, msg := errs.First()
		fail(c, http.StatusBadRequest, msg, field)
		return
	}

	ctx := c.Request.Context()
	key := storage.NewKey("thumbnails", thumb.Ext())
	url, err := s.Objects.Upload(ctx, key, thumb.ContentType, thumb.Reader())
	if err != nil {
		s.internal(c, "store thumbnail", err)
		return
	}

	p, err := s.Posts.CreateWithLogTx(ctx, models.NewPost{
		AuthorID:  auth.UserID(c),
		Title:     in.Title,
		Desc:      in.Desc,
		Tags:      validation.ParseTags(in.Tags),
		Thumbnail: url,
	})
	if err != nil {
		if derr := s.Objects.Delete(ctx, key); derr != nil {
			s.Log.WarnContext(ctx, "delete orphan thumbnail failed", "key", key, "error", derr)
		}
		s.internal(c, "create post", err)
		return
	}

	if err := s.Index.IndexPost(ctx, p); err != nil {
		s.Log.WarnContext(ctx, "index post failed", "post", p.ID, "error", err)
	}
	ok(c, http.StatusCreated, p)
}

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.Posts.List(c.Request.Context(), listLimit)
	if err != nil {
		s.internal(c, "list posts", err)
		return
	}
	ok(c, http.StatusOK, posts)
}

// listUserPosts answers 404 for an unknown author and an empty list for an
// author without posts.
func (s *Server) listUserPosts(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(c, http.StatusNotFound, MsgUserNotFound, "")
			return
		}
		s.internal(c, "load user", err)
		return
	}
	posts, err := s.Posts.ListByAuthor(ctx, id)
	if err != nil {
		s.internal(c, "list user posts", err)
		return
	}
	ok(c, http.StatusOK, posts)
}

// getPost is cache-aside on the post record.
func (s *Server) getPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid post id", "")
		return
	}
	ctx := c.Request.Context()
	key := cache.PostKey(id)

	var p models.Post
	if err := s.Cache.Fetch(ctx, key, &p); err == nil {
		c.Header("X-Cache", "HIT")
		ok(c, http.StatusOK, &p)
		return
	}

	found, err := s.Posts.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, MsgPostNotFound, "")
		return
	case err != nil:
		s.internal(c, "load post", err)
		return
	}
	if err := s.Cache.Store(ctx, key, found); err != nil {
		s.Log.WarnContext(ctx, "cache store failed", "key", key, "error", err)
	}
	c.Header("X-Cache", "MISS")
	ok(c, http.StatusOK, found)
}

// searchPosts runs a full-text query with ?q= or an exact tag match with
// ?tag=.
func (s *Server) searchPosts(c *gin.Context) {
	ctx := c.Request.Context()
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		posts, err := s.Posts.SearchByTag(ctx, tag)
		if err != nil {
			s.internal(c, "search by tag", err)
			return
		}
		ok(c, http.StatusOK, posts)
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, "Missing search query", "q")
		return
	}
	hits, err := s.Index.Search(ctx, q)
	if err != nil {
		s.internal(c, "search", err)
		return
	}
	ok(c, http.StatusOK, hits)
}
