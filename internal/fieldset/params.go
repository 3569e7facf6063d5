package fieldset

import (
	"net/url"
	"strings"
)

// Params holds the requested field lists keyed by query parameter name.
// A key is present only if the client supplied that parameter.
type Params map[string][]string

// FromQuery extracts the named parameters from a query string. Values are
// split on commas as-is, so "fields=" yields a single empty name that
// matches nothing.
func FromQuery(q url.Values, names ...string) Params {
	params := make(Params, len(names))
	for _, name := range names {
		if !q.Has(name) {
			continue
		}
		params[name] = strings.Split(q.Get(name), ",")
	}
	return params
}
