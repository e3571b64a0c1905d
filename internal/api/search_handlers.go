package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/keepstackapp/keepstack-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-articles",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search articles",
		Description: "Full-text search over the user's saved articles. An empty query lists everything matching the filters.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// SearchInput carries the search query and filters.
type SearchInput struct {
	Query  string `query:"q" doc:"Search query"`
	Type   string `query:"type" enum:"article,pdf,epub,note" doc:"Filter by article type"`
	Status string `query:"status" enum:"inbox,later,archived" doc:"Filter by triage status"`
	Tag    string `query:"tag" doc:"Filter by tag name"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" doc:"Result count (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Result offset"`
}

// SearchOutput wraps a search result for Huma.
type SearchOutput struct {
	Body search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.searchIndex.Search(ctx, search.Params{
		Query:  input.Query,
		UserID: userID,
		Type:   input.Type,
		Status: input.Status,
		Tag:    input.Tag,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: *result}, nil
}
