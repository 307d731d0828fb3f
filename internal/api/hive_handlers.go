package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/service"
)

func (s *Server) registerHiveRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addToHive",
		Method:        http.MethodPost,
		Path:          "/api/v1/hive",
		Summary:       "Add title to hive",
		Description:   "Resolves a catalog title, reconciles its seasons and adds it to the caller's hive",
		Tags:          []string{"Hive"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddToHive)

	huma.Register(s.api, huma.Operation{
		OperationID: "listHive",
		Method:      http.MethodGet,
		Path:        "/api/v1/hive",
		Summary:     "List hive",
		Description: "Returns the caller's hive entries with their titles",
		Tags:        []string{"Hive"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListHive)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromHive",
		Method:      http.MethodDelete,
		Path:        "/api/v1/hive/{titleId}",
		Summary:     "Remove title from hive",
		Description: "Removes the caller's entry for a title. The title itself is kept",
		Tags:        []string{"Hive"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFromHive)
}

// AddToHiveRequest is the request body for adding a title.
type AddToHiveRequest struct {
	ExternalID            int64      `json:"external_id" doc:"Catalog ID of the title"`
	MediaKind             string     `json:"media_kind" doc:"movie or series (tv is accepted)"`
	Status                string     `json:"status" doc:"PENDING, WATCHING, UNFINISHED, FINISHED, DROPPED or REWATCHING"`
	CurrentSeason         int        `json:"current_season,omitempty" doc:"Current season (series)"`
	CurrentEpisode        int        `json:"current_episode,omitempty" doc:"Current episode (series)"`
	CurrentRuntimeMinutes int        `json:"current_runtime_minutes,omitempty" doc:"Minutes watched (movies)"`
	StartedAt             *time.Time `json:"started_at,omitempty" doc:"When watching started"`
	FinishedAt            *time.Time `json:"finished_at,omitempty" doc:"When watching finished"`
	Rating                int        `json:"rating,omitempty" doc:"Rating 1-10, kept only with finished_at"`
	IsFavorite            bool       `json:"is_favorite,omitempty" doc:"Mark as favorite"`
}

// AddToHiveInput wraps the add request for Huma.
type AddToHiveInput struct {
	Authorization string `header:"Authorization"`
	Body          AddToHiveRequest
}

// AddToHiveOutput wraps the add response for Huma.
type AddToHiveOutput struct {
	Body AddToHiveResponse
}

// ListHiveInput carries the caller's credentials.
type ListHiveInput struct {
	Authorization string `header:"Authorization"`
}

// ListHiveOutput wraps the hive list for Huma.
type ListHiveOutput struct {
	Body HiveListResponse
}

// RemoveFromHiveInput identifies the entry to remove.
type RemoveFromHiveInput struct {
	Authorization string `header:"Authorization"`
	TitleID       string `path:"titleId" doc:"Title ID"`
}

func (r AddToHiveRequest) toService() service.AddTitleRequest {
	return service.AddTitleRequest{
		ExternalID: r.ExternalID,
		MediaKind:  r.MediaKind,
		HiveForm: service.HiveForm{
			Status:                r.Status,
			CurrentSeason:         r.CurrentSeason,
			CurrentEpisode:        r.CurrentEpisode,
			CurrentRuntimeMinutes: r.CurrentRuntimeMinutes,
			StartedAt:             r.StartedAt,
			FinishedAt:            r.FinishedAt,
			Rating:                r.Rating,
			IsFavorite:            r.IsFavorite,
		},
	}
}

func (s *Server) handleAddToHive(ctx context.Context, input *AddToHiveInput) (*AddToHiveOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	outcome, err := s.services.Admission.AddTitleToHive(ctx, userID, input.Body.toService())
	if err != nil {
		return nil, toAPIError(err)
	}
	if outcome.Status == service.OutcomeAlreadyMember {
		return nil, toAPIError(domainerrors.AlreadyMember().WithDetails(map[string]string{
			"title_id": outcome.Title.ID,
		}))
	}

	return &AddToHiveOutput{Body: newAddToHiveResponse(outcome)}, nil
}

func (s *Server) handleListHive(ctx context.Context, _ *ListHiveInput) (*ListHiveOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Hive.ListEntries(ctx, userID)
	if err != nil {
		return nil, toAPIError(err)
	}

	resp := HiveListResponse{
		Items: make([]HiveItemResponse, 0, len(items)),
		Total: len(items),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, HiveItemResponse{
			Entry: newHiveEntryResponse(item.Entry),
			Title: newTitleResponse(item.Title),
		})
	}
	return &ListHiveOutput{Body: resp}, nil
}

func (s *Server) handleRemoveFromHive(ctx context.Context, input *RemoveFromHiveInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Hive.RemoveEntry(ctx, userID, input.TitleID); err != nil {
		return nil, toAPIError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Removed from hive"}}, nil
}
