package contactsync

import (
	"maps"
	"net/url"
	"strings"

	"ringroster/internal/core/normalize"
)

// Signature is the filter, sort and search currently in effect
// two signatures with the same Key select the same records in the same order
type Signature struct {
	Filter map[string]string
	Sort   string
	Search string
}

// Key returns a canonical form: every value query-escaped, filter keys sorted under an "f."
// prefix, empty filter values dropped and the search term folded the same way the server folds it
func (s Signature) Key() string {
	v := url.Values{}
	for k, val := range s.Filter {
		if val = strings.TrimSpace(val); val != "" {
			v.Set("f."+k, val)
		}
	}
	v.Set("sort", strings.TrimSpace(s.Sort))
	v.Set("q", normalize.Text(s.Search))
	return v.Encode()
}

// Equal reports whether both signatures select the same view
func (s Signature) Equal(o Signature) bool { return s.Key() == o.Key() }

// With returns a copy with one filter set, an empty value removes the filter
func (s Signature) With(key, value string) Signature {
	out := Signature{Sort: s.Sort, Search: s.Search, Filter: maps.Clone(s.Filter)}
	if out.Filter == nil {
		out.Filter = map[string]string{}
	}
	if value == "" {
		delete(out.Filter, key)
	} else {
		out.Filter[key] = value
	}
	return out
}
