// Package grid reads listing rows out of a rendered data grid whose markup
// varies across deployments: header labels are matched by alias, row
// selectors are tried as an ordered fallback list, and pagination advance is
// confirmed by observable signature change rather than widget internals.
package grid

import (
	"strings"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

// ColumnMapping maps a logical field name to its column index on the
// current page. -1 means the field was not found; it resolves to an empty
// string for every row on that page.
type ColumnMapping map[string]int

// DefaultFieldAliases lists, per logical field, the case-insensitive header
// substrings that identify its column. Earlier aliases win over later ones.
var DefaultFieldAliases = map[string][]string{
	"contract_number": {"bid #", "bid no", "contract no", "solicitation", "number", "#"},
	"contract_title":  {"title", "description", "project"},
	"open_date":       {"open date", "issue date", "posted", "publish"},
	"deadline_date":   {"deadline", "due", "close"},
	"agency_code":     {"agency", "department", "org"},
	"category_code":   {"category", "commodity", "class"},
}

// ResolveColumns locates each field's column among the rendered header
// labels. For a field, the first alias with any matching header wins; among
// headers matching that alias, the earliest column wins. Missing or empty
// headers never match.
func ResolveColumns(headers []string, aliases map[string][]string) ColumnMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(model.NormalizeSpace(h))
	}

	mapping := make(ColumnMapping, len(aliases))
	for field, candidates := range aliases {
		mapping[field] = -1
		for _, alias := range candidates {
			a := strings.ToLower(alias)
			found := -1
			for i, h := range normalized {
				if h != "" && strings.Contains(h, a) {
					found = i
					break
				}
			}
			if found >= 0 {
				mapping[field] = found
				break
			}
		}
	}
	return mapping
}
