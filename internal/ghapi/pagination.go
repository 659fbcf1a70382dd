package ghapi

import "github.com/google/go-github/v75/github"

// collectPages drains a paginated REST listing. fetch is called with
// ascending page numbers and returns one page of items plus the response
// carrying pagination metadata.
//
// Paging follows the Link header when the server provides one. Without
// it, a full page signals that the next page should be probed; a short
// or empty page terminates the walk.
func collectPages[T any](pageSize int, fetch func(page int) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	page := 1
	for {
		items, resp, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		next := 0
		if resp != nil {
			next = resp.NextPage
		}
		switch {
		case next != 0:
			page = next
		case pageSize > 0 && len(items) == pageSize:
			page++
		default:
			return all, nil
		}
	}
}
