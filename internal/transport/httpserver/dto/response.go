package dto

import (
	"encoding/json"
	"time"

	"watchlist-service/internal/domain"
)

// PopularResponse represents the popular list response.
// Results are the upstream details documents, unmodified.
type PopularResponse struct {
	Results []domain.TitleDocument `json:"results"`
	Count   int                    `json:"count"`
}

// NewPopularResponse wraps docs, never encoding a null list.
func NewPopularResponse(docs []domain.TitleDocument) PopularResponse {
	if docs == nil {
		docs = []domain.TitleDocument{}
	}
	return PopularResponse{Results: docs, Count: len(docs)}
}

// SearchResponse represents the search results response.
type SearchResponse struct {
	Results []json.RawMessage `json:"results"`
	Count   int               `json:"count"`
}

// NewSearchResponse wraps results, never encoding a null list.
func NewSearchResponse(results []json.RawMessage) SearchResponse {
	if results == nil {
		results = []json.RawMessage{}
	}
	return SearchResponse{Results: results, Count: len(results)}
}

// WatchlistItemResponse represents a single watchlist entry.
type WatchlistItemResponse struct {
	ID       int64  `json:"id"`
	TConst   string `json:"tconst"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	AddedAt  string `json:"added_at"`
}

// FromWatchlistItem converts domain.WatchlistItem to WatchlistItemResponse.
func FromWatchlistItem(item *domain.WatchlistItem) WatchlistItemResponse {
	resp := WatchlistItemResponse{
		ID:      item.ID,
		AddedAt: item.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.Movie != nil {
		resp.TConst = item.Movie.ExternalID
		resp.Title = item.Movie.Title
		resp.ImageURL = item.Movie.ImageURL
	}

	return resp
}

// WatchlistResponse represents a user's watchlist.
type WatchlistResponse struct {
	Items []WatchlistItemResponse `json:"items"`
	Count int                     `json:"count"`
}

// FromWatchlist converts a watchlist, keeping its order.
func FromWatchlist(items []*domain.WatchlistItem) WatchlistResponse {
	resp := WatchlistResponse{Items: make([]WatchlistItemResponse, len(items))}
	for i, item := range items {
		resp.Items[i] = FromWatchlistItem(item)
	}
	resp.Count = len(items)

	return resp
}

// AddWatchlistResponse represents the result of a watchlist add.
type AddWatchlistResponse struct {
	Message string                `json:"message"`
	Created bool                  `json:"created"`
	Item    WatchlistItemResponse `json:"item"`
}

// RemoveWatchlistResponse represents the result of a watchlist removal.
type RemoveWatchlistResponse struct {
	Removed bool `json:"removed"`
}

// BroadcastResponse represents the result of an admin broadcast.
type BroadcastResponse struct {
	Sent bool `json:"sent"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
