package models

import "time"

type Post struct {
	ID        int       `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Desc      string    `json:"desc"`
	Tags      []string  `json:"tags"`
	Thumbnail string    `json:"thumbnail"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostReq is bound from the multipart create-post body. The thumbnail
// arrives through the upload pipeline, not through binding.
type CreatePostReq struct {
	Title string `form:"title"`
	Desc  string `form:"desc"`
	Tags  string `form:"tags"`
}

// NewPost is what the repository persists once the request has been
// validated and the thumbnail stored.
type NewPost struct {
	AuthorID  string
	Title     string
	Desc      string
	Tags      []string
	Thumbnail string
}
