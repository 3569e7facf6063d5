package api

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/fieldset"
	"github.com/mmynk/hostel/internal/storage"
)

// Paginator reads page and page_size and renders page envelopes.
type Paginator struct {
	// PageSize is used when page_size is absent or invalid.
	PageSize int
	// MaxPageSize caps page_size.
	MaxPageSize int
}

// pageRequest is a parsed page selection.
type pageRequest struct {
	number int
	size   int
}

func (p pageRequest) window() storage.Page {
	return storage.Page{Offset: (p.number - 1) * p.size, Limit: p.size}
}

// parse reads the 1-based page and page_size parameters. A page that is
// not a positive integer is a 404, as is any page past the last.
func (p Paginator) parse(r *http.Request) (pageRequest, error) {
	q := r.URL.Query()
	req := pageRequest{number: 1, size: p.PageSize}

	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			req.size = min(n, p.MaxPageSize)
		}
	}
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		// No list is long enough for a page whose offset overflows.
		if err != nil || n < 1 || n-1 > math.MaxInt/req.size {
			return pageRequest{}, apperr.New(apperr.NotFound, "invalid page")
		}
		req.number = n
	}
	return req, nil
}

// envelope renders {count, next, previous, results}. It fails for a page
// past the last one, except that page 1 of an empty list is valid.
func (p Paginator) envelope(r *http.Request, req pageRequest, count int, results []*fieldset.Object) (*fieldset.Object, error) {
	last := lastPage(count, req.size)
	if req.number > 1 && req.number > last {
		return nil, apperr.New(apperr.NotFound, "invalid page")
	}

	var next, previous any
	if req.number < last {
		next = pageURL(r, req.number+1)
	}
	if req.number > 1 {
		previous = pageURL(r, req.number-1)
	}
	if results == nil {
		results = []*fieldset.Object{}
	}

	out := fieldset.NewObject()
	out.Set("count", count)
	out.Set("next", next)
	out.Set("previous", previous)
	out.Set("results", results)
	return out, nil
}

// lastPage is the number of the last non-empty page.
func lastPage(count, size int) int {
	pages := count / size
	if count%size != 0 {
		pages++
	}
	return pages
}

// pageURL is the absolute URL of the current request at another page.
// Page 1 is addressed by dropping the parameter.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
