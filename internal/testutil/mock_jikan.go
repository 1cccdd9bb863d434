// Package testutil provides testing utilities for the anime catalog.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// ListingPath is the path the mock serves pages on, relative to URL().
const ListingPath = "/v4/top/anime"

// MockResponse defines a scripted response for one page request.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockJikan is a configurable mock of the Jikan top anime listing.
//
// By default page N (1..TotalPages) answers 200 with PerPage generated
// entries whose mal_id runs (N-1)*PerPage+1 .. N*PerPage. Scripted
// responses queued with Enqueue are served first, one per request.
type MockJikan struct {
	server *httptest.Server
	mu     sync.RWMutex

	TotalPages int
	PerPage    int
	LastPage   int // entries on the last page; 0 means PerPage

	scripted map[int][]MockResponse

	// Tracking
	RequestCount int
	pageHits     map[int]int
	order        []int
	started      []time.Time
	userAgents   []string
}

// NewMockJikan creates and starts a mock server.
func NewMockJikan(totalPages, perPage int) *MockJikan {
	mock := &MockJikan{
		TotalPages: totalPages,
		PerPage:    perPage,
		scripted:   make(map[int][]MockResponse),
		pageHits:   make(map[int]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(ListingPath, mock.handle)
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the server root.
func (m *MockJikan) URL() string {
	return m.server.URL
}

// BaseURL returns the API base a client should be configured with.
func (m *MockJikan) BaseURL() string {
	return m.server.URL + "/v4"
}

// Close shuts down the mock server.
func (m *MockJikan) Close() {
	m.server.Close()
}

// Enqueue schedules responses for a page; each request to the page pops one.
func (m *MockJikan) Enqueue(page int, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted[page] = append(m.scripted[page], responses...)
}

// ThrottleOnce makes the next request for page answer 429.
func (m *MockJikan) ThrottleOnce(page int) {
	m.Enqueue(page, NewThrottledResponse())
}

// FailPage makes the next request for page answer with status.
func (m *MockJikan) FailPage(page, status int) {
	m.Enqueue(page, MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"status": %d, "type": "mock", "message": "scripted failure"}`, status),
	})
}

// PageHits returns how many requests page received.
func (m *MockJikan) PageHits(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageHits[page]
}

// RequestOrder returns the page numbers in the order they were requested.
func (m *MockJikan) RequestOrder() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}

// RequestTimes returns the arrival time of each request.
func (m *MockJikan) RequestTimes() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]time.Time, len(m.started))
	copy(out, m.started)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockJikan) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// LastUserAgent returns the User-Agent of the most recent request.
func (m *MockJikan) LastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[len(m.userAgents)-1]
}

// Reset clears tracking and scripted responses.
func (m *MockJikan) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.pageHits = make(map[int]int)
	m.scripted = make(map[int][]MockResponse)
	m.order = nil
	m.started = nil
	m.userAgents = nil
}

func (m *MockJikan) handle(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	m.mu.Lock()
	m.RequestCount++
	m.pageHits[page]++
	m.order = append(m.order, page)
	m.started = append(m.started, time.Now())
	m.userAgents = append(m.userAgents, r.Header.Get("User-Agent"))

	var scripted *MockResponse
	if queue := m.scripted[page]; len(queue) > 0 {
		scripted = &queue[0]
		m.scripted[page] = queue[1:]
	}
	m.mu.Unlock()

	if scripted != nil {
		writeMock(w, *scripted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m.PageJSON(page))
}

// PageJSON renders the default body for a page.
func (m *MockJikan) PageJSON(page int) []byte {
	m.mu.RLock()
	total, perPage, lastPage := m.TotalPages, m.PerPage, m.LastPage
	m.mu.RUnlock()

	count := 0
	if page >= 1 && page <= total {
		count = perPage
		if page == total && lastPage > 0 {
			count = lastPage
		}
	}

	data := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		id := int64((page-1)*perPage + i + 1)
		data = append(data, RawEntry(id))
	}

	body := map[string]any{
		"pagination": map[string]any{
			"last_visible_page": total,
			"has_next_page":     page < total,
			"current_page":      page,
			"items": map[string]any{
				"count":    count,
				"total":    total * perPage,
				"per_page": perPage,
			},
		},
		"data": data,
	}

	out, _ := json.Marshal(body)
	return out
}

// RawEntry builds an upstream entry for id. Every third id has no English
// title so normalization falls back to the canonical one.
func RawEntry(id int64) map[string]any {
	var english any = fmt.Sprintf("Anime %d", id)
	if id%3 == 0 {
		english = nil
	}
	return map[string]any{
		"mal_id": id,
		"url":    fmt.Sprintf("https://myanimelist.net/anime/%d", id),
		"images": map[string]any{
			"jpg": map[string]any{
				"image_url":       fmt.Sprintf("https://cdn.myanimelist.net/images/anime/%d.jpg", id),
				"small_image_url": fmt.Sprintf("https://cdn.myanimelist.net/images/anime/%dt.jpg", id),
				"large_image_url": fmt.Sprintf("https://cdn.myanimelist.net/images/anime/%dl.jpg", id),
			},
		},
		"title":         fmt.Sprintf("Canonical %d", id),
		"title_english": english,
	}
}

// ExpectedTitle is the title normalization should produce for RawEntry(id).
func ExpectedTitle(id int64) string {
	if id%3 == 0 {
		return fmt.Sprintf("Canonical %d", id)
	}
	return fmt.Sprintf("Anime %d", id)
}

func writeMock(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// NewThrottledResponse creates a 429 Too Many Requests response as Jikan
// sends it.
func NewThrottledResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status": 429, "type": "RateLimitException", "message": "You are being rate limited."}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Retry-After":  "1",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status": 500, "type": "InternalException", "message": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewMalformedResponse creates a 200 response that is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": [`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
