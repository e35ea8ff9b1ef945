package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// The popular endpoint returns title references shaped like "/title/tt0133093/".
// The identifier is read from a fixed window of that string.
const (
	titleIDOffset = 7
	titleIDLength = 10
)

// ExtractTitleID returns the external identifier embedded in a title reference.
// For 7-digit ids the window also covers the closing slash, which is dropped.
func ExtractTitleID(ref string) (string, bool) {
	if len(ref) <= titleIDOffset {
		return "", false
	}

	end := titleIDOffset + titleIDLength
	if end > len(ref) {
		end = len(ref)
	}

	id := strings.TrimSuffix(ref[titleIDOffset:end], "/")

	return id, id != ""
}

// TitleDocument is an overview or details payload exactly as returned upstream.
// Only Summary gives typed access into it; the rest passes through untouched.
type TitleDocument json.RawMessage

// MarshalJSON returns the document bytes.
func (d TitleDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores a copy of data.
func (d *TitleDocument) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("domain.TitleDocument: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}

// TitleSummary holds the display fields read from a TitleDocument.
type TitleSummary struct {
	Title    string
	ImageURL string
}

// IsEmpty reports whether neither field was found.
func (s TitleSummary) IsEmpty() bool {
	return s.Title == "" && s.ImageURL == ""
}

// titleEnvelope mirrors the known paths title.title and title.image.url.
// Every node is optional.
type titleEnvelope struct {
	Title *struct {
		Title *string `json:"title"`
		Image *struct {
			URL *string `json:"url"`
		} `json:"image"`
	} `json:"title"`
}

// Summary reads title.title and title.image.url.
// Absent or null nodes at any level give empty strings. A node of the wrong
// JSON type (e.g. "title" being a string) is reported as an error.
func (d TitleDocument) Summary() (TitleSummary, error) {
	trimmed := bytes.TrimSpace(d)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return TitleSummary{}, nil
	}

	var env titleEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return TitleSummary{}, fmt.Errorf("decoding title document: %w", err)
	}

	var s TitleSummary
	if env.Title == nil {
		return s, nil
	}
	if env.Title.Title != nil {
		s.Title = *env.Title.Title
	}
	if env.Title.Image != nil && env.Title.Image.URL != nil {
		s.ImageURL = *env.Title.Image.URL
	}

	return s, nil
}

// SearchResults is the envelope of the upstream search endpoint.
type SearchResults struct {
	Results []json.RawMessage `json:"results"`
}

// titleRef is the top-level "id" reference ("/title/tt0133093/") carried by
// search results and details documents.
type titleRef struct {
	ID string `json:"id"`
}

// ReferencedTitleID returns the external identifier a payload refers to.
// References to anything other than a title (e.g. "/name/nm0000206/") are ignored.
func ReferencedTitleID(payload []byte) (string, bool) {
	var ref titleRef
	if err := json.Unmarshal(payload, &ref); err != nil || !strings.HasPrefix(ref.ID, "/title/") {
		return "", false
	}

	return ExtractTitleID(ref.ID)
}
