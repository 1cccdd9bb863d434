package browse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

// CatalogPath is the backend route serving the full catalog.
const CatalogPath = "/fetch-anime"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// FetchError is a non-200 answer from the backend.
type FetchError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return e.Message
}

// Fetch issues one GET of the catalog from backendURL. The request carries
// no timeout of its own; a cold backend can take many minutes to answer.
func Fetch(ctx context.Context, client *http.Client, backendURL string) ([]catalog.Record, error) {
	if client == nil {
		client = http.DefaultClient
	}

	url := strings.TrimRight(backendURL, "/") + CatalogPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("failed to fetch anime data (HTTP %d)", resp.StatusCode)
		}
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: msg}
	}

	var records []catalog.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return records, nil
}
