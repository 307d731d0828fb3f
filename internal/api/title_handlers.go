package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTitleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTitle",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles/{id}",
		Summary:     "Get title",
		Description: "Returns a stored title with its genres and seasons",
		Tags:        []string{"Titles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTitle)
}

// GetTitleInput identifies a title.
type GetTitleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Title ID"`
}

// TitleDetailOutput wraps a title detail for Huma.
type TitleDetailOutput struct {
	Body TitleDetailResponse
}

func (s *Server) handleGetTitle(ctx context.Context, input *GetTitleInput) (*TitleDetailOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	detail, err := s.services.Hive.GetTitleDetail(ctx, input.ID)
	if err != nil {
		return nil, toAPIError(err)
	}

	return &TitleDetailOutput{
		Body: TitleDetailResponse{
			Title:   newTitleResponse(detail.Title),
			Genres:  detail.Genres,
			Seasons: newSeasonResponses(detail.Seasons),
		},
	}, nil
}
