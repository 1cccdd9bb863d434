// Package pagination walks the upstream listing page by page under a
// request-rate ceiling and returns the concatenated records.
//
// The upstream total page count is not discovered; it is a configured bound
// (Config.TotalPages). Requests are strictly sequential: page N+1 starts no
// earlier than one pacing interval after page N started.
//
// Example usage:
//
//	client, _ := jikan.New(jikan.DefaultConfig("anime-catalog/1.0"))
//	pager := pagination.NewPager(client, pagination.DefaultConfig())
//	records, err := pager.FetchAll(ctx, nil)
//
// The pager:
//   - Fetches pages 1..TotalPages in order
//   - Suspends for a fixed cooldown on HTTP 429 and retries the same page,
//     as many times as it takes
//   - Aborts the whole run on any other error; nothing partial is returned
//   - Logs progress every 50 pages
package pagination
