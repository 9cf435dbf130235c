package shared

import (
	"net/url"
	"strconv"
	"strings"
)

type Pagination struct {
	Limit  int
	Offset int
}

// Page reads limit and offset from q. Limits above maxLimit are clamped;
// malformed or negative values are recorded as issues.
func (v *Validator) Page(q url.Values, defaultLimit, maxLimit int) Pagination {
	page := Pagination{Limit: defaultLimit}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			v.Add("limit", "must be a positive integer")
		} else {
			page.Limit = n
		}
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("offset", "must be zero or a positive integer")
		} else {
			page.Offset = n
		}
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}
