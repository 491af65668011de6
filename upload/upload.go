// Package upload receives image files into memory. Two pipelines exist, one
// for profile avatars and one for post thumbnails; both share ImageFilter.
// Persisting the buffered bytes is left to the handler behind the pipeline.
package upload

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"inkblog/models"
)

// MsgNotImage is shared with the post schema so both sides reject a file with
// the same words.
const MsgNotImage = "Only images are allowed: jpg, jpeg, png, webp, heic, heif"

// AllowedTypes is the MIME allow-list for every image upload.
var AllowedTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/heic",
	"image/heif",
}

var (
	ErrNotImage = errors.New(MsgNotImage)
	ErrTooLarge = errors.New("file too large")
)

const contextKey = "upload.file"

// File is a fully buffered upload.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

func (f *File) Reader() io.Reader { return bytes.NewReader(f.Data) }

// Ext returns the lower-cased filename extension, dot included.
func (f *File) Ext() string { return strings.ToLower(filepath.Ext(f.Filename)) }

// Filter decides whether a file with the given MIME type may pass.
type Filter func(contentType string) error

// ImageFilter accepts exactly the types in AllowedTypes.
func ImageFilter(contentType string) error {
	for _, t := range AllowedTypes {
		if contentType == t {
			return nil
		}
	}
	return ErrNotImage
}

// Pipeline is a single-file, memory-buffered reception step for one form
// field.
type Pipeline struct {
	Field  string
	Filter Filter
	// MaxBytes of zero means no cap.
	MaxBytes int64
	// TooLarge is the message sent back when MaxBytes is exceeded.
	TooLarge string
}

func Avatar() Pipeline {
	return Pipeline{Field: "avatar", Filter: ImageFilter}
}

func Thumbnail(maxBytes int64) Pipeline {
	return Pipeline{
		Field:    "thumbnail",
		Filter:   ImageFilter,
		MaxBytes: maxBytes,
		TooLarge: "Thumbnail too large",
	}
}

// Accept runs the filter and size cap against a file that is already in
// memory.
func (p Pipeline) Accept(f *File) error {
	filter := p.Filter
	if filter == nil {
		filter = ImageFilter
	}
	if err := filter(f.ContentType); err != nil {
		return err
	}
	if p.MaxBytes > 0 && f.Size > p.MaxBytes {
		return ErrTooLarge
	}
	return nil
}

// Single returns gin middleware that reads p.Field from a multipart body,
// filters it and stores the buffered file on the context. A request without
// the field passes through untouched; the handler decides if it is required.
func (p Pipeline) Single() gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile(p.Field)
		if errors.Is(err, http.ErrMissingFile) {
			c.Next()
			return
		}
		if err != nil {
			abort(c, http.StatusBadRequest, "Invalid multipart body", p.Field)
			return
		}

		f := &File{
			Field:       p.Field,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}
		switch err := p.Accept(f); {
		case errors.Is(err, ErrTooLarge):
			abort(c, http.StatusRequestEntityTooLarge, p.TooLarge, p.Field)
			return
		case err != nil:
			abort(c, http.StatusBadRequest, err.Error(), p.Field)
			return
		}

		src, err := fh.Open()
		if err != nil {
			abort(c, http.StatusBadRequest, "Invalid multipart body", p.Field)
			return
		}
		defer src.Close()
		if f.Data, err = io.ReadAll(src); err != nil {
			abort(c, http.StatusBadRequest, "Invalid multipart body", p.Field)
			return
		}

		c.Set(contextKey, f)
		c.Next()
	}
}

// FromContext returns the file a pipeline buffered for this request.
func FromContext(c *gin.Context) (*File, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	f, ok := v.(*File)
	return f, ok
}

func abort(c *gin.Context, status int, msg, field string) {
	c.AbortWithStatusJSON(status, models.Result{Success: false, Message: msg, Field: field})
}
