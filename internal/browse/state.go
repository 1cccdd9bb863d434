// Package browse holds the view state of the catalog browser: the loaded
// list, an optional search result set, the current page and the raw text of
// the page-jump box. It has no I/O; the terminal UI renders it.
package browse

import (
	"strconv"
	"strings"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

// PageSize is the number of records shown per page.
const PageSize = 24

// State is the browser view state. The zero value is an empty browser on
// page 1.
type State struct {
	all       []catalog.Record
	results   []catalog.Record
	searching bool
	query     string
	page      int
	jumpInput string
}

// New returns a browser over records, on page 1.
func New(records []catalog.Record) *State {
	s := &State{}
	s.Load(records)
	return s
}

// Load replaces the full list and resets the view.
func (s *State) Load(records []catalog.Record) {
	s.all = records
	s.results = nil
	s.searching = false
	s.query = ""
	s.setPage(1)
}

// Active is the list the view is paging over: search results when a search
// is applied, the full list otherwise.
func (s *State) Active() []catalog.Record {
	if s.searching {
		return s.results
	}
	return s.all
}

// Total is the number of loaded records, ignoring any search.
func (s *State) Total() int {
	return len(s.all)
}

// Searching reports whether a search result set is applied.
func (s *State) Searching() bool {
	return s.searching
}

// Query returns the applied search query.
func (s *State) Query() string {
	return s.query
}

// Page returns the committed page, 1-based.
func (s *State) Page() int {
	if s.page < 1 {
		return 1
	}
	return s.page
}

// TotalPages is ceil(len(Active())/PageSize); zero records give zero pages.
func (s *State) TotalPages() int {
	n := len(s.Active())
	return (n + PageSize - 1) / PageSize
}

// PageItems returns the records on the committed page.
func (s *State) PageItems() []catalog.Record {
	active := s.Active()
	start := (s.Page() - 1) * PageSize
	if start >= len(active) {
		return nil
	}
	end := min(start+PageSize, len(active))
	return active[start:end]
}

// CanBack reports whether Back would move.
func (s *State) CanBack() bool {
	return s.Page() > 1
}

// CanForward reports whether Forward would move.
func (s *State) CanForward() bool {
	return s.Page() < s.TotalPages()
}

// Back moves one page back if possible.
func (s *State) Back() {
	if s.CanBack() {
		s.setPage(s.Page() - 1)
	}
}

// Forward moves one page forward if possible.
func (s *State) Forward() {
	if s.CanForward() {
		s.setPage(s.Page() + 1)
	}
}

// JumpInput returns the page-jump box text.
func (s *State) JumpInput() string {
	return s.jumpInput
}

// SetJumpInput stores raw page-jump text without committing it.
func (s *State) SetJumpInput(text string) {
	s.jumpInput = text
}

// CommitJump parses the page-jump text and commits the clamped page.
// Non-numeric or < 1 becomes 1, above TotalPages becomes TotalPages. The
// box text is rewritten to the committed page.
func (s *State) CommitJump() int {
	s.setPage(ClampPage(s.jumpInput, s.TotalPages()))
	return s.page
}

// ClampPage parses text as a page number within [1, totalPages]. With zero
// pages the result is 1.
func ClampPage(text string, totalPages int) int {
	page, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || page < 1 || totalPages < 1 {
		return 1
	}
	return min(page, totalPages)
}

// Search applies a case-insensitive substring match on Title over the full
// list and moves to page 1.
func (s *State) Search(query string) {
	needle := strings.ToLower(query)
	results := make([]catalog.Record, 0)
	for _, rec := range s.all {
		if strings.Contains(strings.ToLower(rec.Title), needle) {
			results = append(results, rec)
		}
	}
	s.results = results
	s.searching = true
	s.query = query
	s.setPage(1)
}

// Clear drops the search results and query and moves to page 1.
func (s *State) Clear() {
	s.results = nil
	s.searching = false
	s.query = ""
	s.setPage(1)
}

func (s *State) setPage(page int) {
	s.page = page
	s.jumpInput = strconv.Itoa(page)
}
