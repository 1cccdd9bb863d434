package browse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

func catalogOf(n int) []catalog.Record {
	out := make([]catalog.Record, n)
	for i := range out {
		out[i] = catalog.Record{ID: int64(i + 1), Title: fmt.Sprintf("Anime %d", i+1)}
	}
	return out
}

func pageIDs(s *State) []int64 {
	items := s.PageItems()
	out := make([]int64, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		records int
		want    int
	}{
		{records: 0, want: 0},
		{records: 1, want: 1},
		{records: 24, want: 1},
		{records: 25, want: 2},
		{records: 48, want: 2},
		{records: 27336, want: 1139},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.records), func(t *testing.T) {
			assert.Equal(t, tt.want, New(catalogOf(tt.records)).TotalPages())
		})
	}
}

func TestPaging_FortyEightRecords(t *testing.T) {
	s := New(catalogOf(48))

	require.Equal(t, 2, s.TotalPages())
	assert.Equal(t, 1, s.Page())
	assert.False(t, s.CanBack(), "back disabled on page 1")
	assert.True(t, s.CanForward())
	assert.Len(t, s.PageItems(), 24)
	assert.EqualValues(t, 1, s.PageItems()[0].ID)

	s.Forward()
	assert.Equal(t, 2, s.Page())
	assert.Equal(t, "2", s.JumpInput())
	ids := pageIDs(s)
	require.Len(t, ids, 24)
	assert.EqualValues(t, 25, ids[0])
	assert.EqualValues(t, 48, ids[23])
	assert.False(t, s.CanForward(), "forward disabled on last page")

	s.Forward()
	assert.Equal(t, 2, s.Page(), "forward on last page is a no-op")

	s.Back()
	s.Back()
	assert.Equal(t, 1, s.Page(), "back on page 1 is a no-op")
}

func TestPaging_PartialLastPage(t *testing.T) {
	s := New(catalogOf(50))
	s.SetJumpInput("3")
	s.CommitJump()

	ids := pageIDs(s)
	assert.Equal(t, []int64{49, 50}, ids)
}

func TestPaging_Empty(t *testing.T) {
	s := New(nil)

	assert.Equal(t, 0, s.TotalPages())
	assert.Equal(t, 1, s.Page())
	assert.Empty(t, s.PageItems())
	assert.False(t, s.CanBack())
	assert.False(t, s.CanForward())
}

func TestCommitJump(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		input     string
		wantPage  int
		wantInput string
	}{
		{name: "in range", records: 48, input: "2", wantPage: 2, wantInput: "2"},
		{name: "above total clamps to last", records: 48, input: "999", wantPage: 2, wantInput: "2"},
		{name: "zero clamps to first", records: 48, input: "0", wantPage: 1, wantInput: "1"},
		{name: "negative clamps to first", records: 48, input: "-4", wantPage: 1, wantInput: "1"},
		{name: "non-numeric", records: 48, input: "abc", wantPage: 1, wantInput: "1"},
		{name: "empty", records: 48, input: "", wantPage: 1, wantInput: "1"},
		{name: "surrounding space", records: 100, input: " 3 ", wantPage: 3, wantInput: "3"},
		{name: "no records", records: 0, input: "5", wantPage: 1, wantInput: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(catalogOf(tt.records))
			s.SetJumpInput(tt.input)
			assert.Equal(t, tt.input, s.JumpInput(), "input is not committed until CommitJump")
			assert.Equal(t, 1, s.Page())

			got := s.CommitJump()
			assert.Equal(t, tt.wantPage, got)
			assert.Equal(t, tt.wantPage, s.Page())
			assert.Equal(t, tt.wantInput, s.JumpInput())
		})
	}
}

func TestSearch(t *testing.T) {
	records := []catalog.Record{
		{ID: 1, Title: "Naruto"},
		{ID: 2, Title: "Naruto: Shippuden"},
		{ID: 3, Title: "One Piece"},
		{ID: 4, Title: "Boruto: Naruto Next Generations"},
	}

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "case insensitive", query: "NARUTO", want: []int64{1, 2, 4}},
		{name: "substring", query: "piece", want: []int64{3}},
		{name: "no match", query: "bleach", want: []int64{}},
		{name: "empty query matches all", query: "", want: []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(records)
			s.Search(tt.query)

			assert.True(t, s.Searching())
			assert.Equal(t, tt.query, s.Query())
			assert.Equal(t, tt.want, pageIDs(s))
			assert.Equal(t, 4, s.Total(), "search never alters the full list")
		})
	}
}

func TestSearch_ResetsPageAndClear(t *testing.T) {
	all := catalogOf(100)
	all[80].Title = "Special Match"
	s := New(all)

	s.SetJumpInput("4")
	s.CommitJump()
	require.Equal(t, 4, s.Page())

	s.Search("special")
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 1, s.TotalPages())
	assert.Equal(t, []int64{81}, pageIDs(s))

	s.Clear()
	assert.False(t, s.Searching())
	assert.Equal(t, "", s.Query())
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 5, s.TotalPages())
	assert.Len(t, s.PageItems(), 24)
}

func TestSearch_FromFullListNotPreviousResults(t *testing.T) {
	s := New([]catalog.Record{{ID: 1, Title: "Alpha"}, {ID: 2, Title: "Beta"}})

	s.Search("alpha")
	s.Search("beta")
	assert.Equal(t, []int64{2}, pageIDs(s))
}

func TestLoad_ResetsView(t *testing.T) {
	s := New(catalogOf(60))
	s.Search("Anime 1")
	s.Forward()

	s.Load(catalogOf(10))
	assert.False(t, s.Searching())
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 1, s.TotalPages())
}

func TestZeroValue(t *testing.T) {
	var s State
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 0, s.TotalPages())
	assert.Empty(t, s.PageItems())
}
