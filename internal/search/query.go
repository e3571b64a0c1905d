package search

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures an article search. UserID is mandatory; the index
// holds every user's articles and results must never cross users.
type Params struct {
	Query  string
	UserID string

	// Optional filters
	Type   string
	Status string
	Tag    string

	Limit  int
	Offset int
}

// Result is one page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching article.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Excerpt    string            `json:"excerpt,omitempty"`
	Author     string            `json:"author,omitempty"`
	SiteName   string            `json:"site_name,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs a user-scoped full-text query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	conjuncts := []query.Query{termQuery("user_id", params.UserID)}

	if params.Query != "" {
		match := bleve.NewMatchQuery(params.Query)
		conjuncts = append(conjuncts, match)
	} else {
		conjuncts = append(conjuncts, bleve.NewMatchAllQuery())
	}
	if params.Type != "" {
		conjuncts = append(conjuncts, termQuery("type", params.Type))
	}
	if params.Status != "" {
		conjuncts = append(conjuncts, termQuery("status", params.Status))
	}
	if params.Tag != "" {
		conjuncts = append(conjuncts, termQuery("tags", params.Tag))
	}

	request := bleve.NewSearchRequestOptions(
		bleve.NewConjunctionQuery(conjuncts...), params.Limit, params.Offset, false)
	request.Fields = []string{"title", "excerpt", "author", "site_name"}
	request.Highlight = bleve.NewHighlight()
	request.Highlight.AddField("title")
	request.Highlight.AddField("text")

	result, err := s.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hit := Hit{
			ID:       match.ID,
			Score:    match.Score,
			Title:    fieldString(match.Fields, "title"),
			Excerpt:  fieldString(match.Fields, "excerpt"),
			Author:   fieldString(match.Fields, "author"),
			SiteName: fieldString(match.Fields, "site_name"),
		}
		if len(match.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(match.Fragments))
			for field, fragments := range match.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		hits = append(hits, hit)
	}

	return &Result{
		Query:  params.Query,
		Total:  result.Total,
		TookMs: result.Took.Milliseconds(),
		Hits:   hits,
	}, nil
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
