package jikan

import "github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"

// PageResponse matches GET /top/anime.
// Data is a pointer so a missing array can be told apart from an empty one.
type PageResponse struct {
	Pagination Pagination  `json:"pagination"`
	Data       *[]RawAnime `json:"data"`
}

// Pagination is the upstream paging block.
type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
	Items           struct {
		Count   int `json:"count"`
		Total   int `json:"total"`
		PerPage int `json:"per_page"`
	} `json:"items"`
}

// RawAnime holds the upstream fields we keep.
type RawAnime struct {
	MalID  int64  `json:"mal_id"`
	URL    string `json:"url"`
	Images struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			SmallImageURL string `json:"small_image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Title        string  `json:"title"`
	TitleEnglish *string `json:"title_english"`
}

// Normalize maps a raw entry to a catalog record, preferring the English
// title and falling back to the canonical one.
func (a RawAnime) Normalize() catalog.Record {
	title := a.Title
	if a.TitleEnglish != nil && *a.TitleEnglish != "" {
		title = *a.TitleEnglish
	}
	return catalog.Record{
		ID:       a.MalID,
		URL:      a.URL,
		ImageURL: a.Images.JPG.LargeImageURL,
		Title:    title,
	}
}
