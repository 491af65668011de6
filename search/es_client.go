package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	es8 "github.com/elastic/go-elasticsearch/v8"

	"inkblog/models"
	"inkblog/validation"
)

type ES struct {
	Client *es8.Client
	Index  string
}

// Doc is the indexed form of a post. Desc holds plain text, not HTML.
type Doc struct {
	Title  string   `json:"title"`
	Desc   string   `json:"desc"`
	Tags   []string `json:"tags"`
	Author string   `json:"author_id"`
}

// Hit is one search result.
type Hit struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
	Doc
}

func New(esURL, index string) (*ES, error) {
	es, err := es8.NewClient(es8.Config{Addresses: []string{esURL}, Transport: &http.Transport{}})
	if err != nil {
		return nil, err
	}
	return &ES{Client: es, Index: index}, nil
}

// EnsureIndex creates the index with its mapping; an existing index is not an error.
func (e *ES) EnsureIndex(ctx context.Context) error {
	mapping := `{
	  "mappings": {
	    "properties": {
	      "title":     {"type":"text"},
	      "desc":      {"type":"text"},
	      "tags":      {"type":"keyword"},
	      "author_id": {"type":"keyword"}
	    }
	  }
	}`
	res, err := e.Client.Indices.Create(e.Index,
		e.Client.Indices.Create.WithContext(ctx),
		e.Client.Indices.Create.WithBody(bytes.NewBufferString(mapping)))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("create index %s: %s", e.Index, res.Status())
	}
	return nil
}

func DocFor(p *models.Post) Doc {
	return Doc{
		Title:  p.Title,
		Desc:   validation.PlainText(p.Desc),
		Tags:   p.Tags,
		Author: p.AuthorID,
	}
}

func (e *ES) IndexPost(ctx context.Context, p *models.Post) error {
	b, err := json.Marshal(DocFor(p))
	if err != nil {
		return err
	}
	res, err := e.Client.Index(e.Index, bytes.NewReader(b),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(strconv.Itoa(p.ID)))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.IsError() {
		return fmt.Errorf("index post %d: %s", p.ID, res.Status())
	}
	return nil
}

func MultiMatchQuery(q string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "desc", "tags"},
			},
		},
	}
}

func (e *ES) Search(ctx context.Context, q string) ([]Hit, error) {
	b, _ := json.Marshal(MultiMatchQuery(q))
	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.Index),
		e.Client.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", e.Index, res.Status())
	}
	return decodeHits(res.Body)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source Doc     `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(r io.Reader) ([]Hit, error) {
	var sr searchResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		out = append(out, Hit{ID: id, Score: h.Score, Doc: h.Source})
	}
	return out, nil
}
