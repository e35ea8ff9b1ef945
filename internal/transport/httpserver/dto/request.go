// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

// DefaultLimit is the list size used when a request does not set one.
const DefaultLimit = 15

// PopularRequest represents the query parameters for the popular list.
type PopularRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// EffectiveLimit returns Limit or DefaultLimit when unset.
func (r *PopularRequest) EffectiveLimit() int {
	return limitOrDefault(r.Limit)
}

// SearchRequest represents the query parameters for title search.
type SearchRequest struct {
	Title string `query:"title" validate:"required,max=200"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// EffectiveLimit returns Limit or DefaultLimit when unset.
func (r *SearchRequest) EffectiveLimit() int {
	return limitOrDefault(r.Limit)
}

// TitleRequest identifies a title by path parameter.
type TitleRequest struct {
	ID string `params:"id" validate:"required,tconst"`
}

// AddWatchlistRequest represents the body of a watchlist add.
type AddWatchlistRequest struct {
	TConst string `json:"tconst" validate:"required,tconst"`
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
