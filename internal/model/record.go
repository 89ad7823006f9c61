package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Serialized key names for FileLink. Downstream consumers key off the URL
// field literally, so the casing is pinned here rather than in struct tags.
const (
	fileTitleKey = "title"
	fileURLKey   = "url"
)

// FileLink is one downloadable attachment on a listing.
type FileLink struct {
	Title string
	URL   string
}

// MarshalJSON emits the fixed {title, url} key pair.
func (f FileLink) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range [][2]string{{fileTitleKey, f.Title}, {fileURLKey, f.URL}} {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv[0])
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv[1])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the same fixed key pair.
func (f *FileLink) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.Title = m[fileTitleKey]
	f.URL = m[fileURLKey]
	return nil
}

// ListingRecord is one procurement opportunity extracted from the listing
// grid, optionally enriched from its detail fragments.
type ListingRecord struct {
	ID             string     `json:"id"`
	ContractNumber string     `json:"contract_number"`
	ContractTitle  string     `json:"contract_title"`
	OpenDate       string     `json:"open_date"`
	DeadlineDate   string     `json:"deadline_date"`
	AgencyCode     string     `json:"agency_code"`
	CategoryCode   string     `json:"category_code"`
	DetailLink     *string    `json:"detail_link"`
	AgencyFull     *string    `json:"agency_full"`
	ContactEmail   string     `json:"contact_email"`
	Files          []FileLink `json:"files"`
	DetailError    string     `json:"detail_error,omitempty"`
}

// Viable reports whether the record carries enough identity to keep:
// at least one of contract number or title must be non-empty.
func (r *ListingRecord) Viable() bool {
	return r.ContractNumber != "" || r.ContractTitle != ""
}

// IdentityKey derives the value used for cross-page deduplication.
// Precedence: detail link, then contract number, then a structural
// fallback over the full field content.
func (r *ListingRecord) IdentityKey() string {
	if r.DetailLink != nil && *r.DetailLink != "" {
		return "link\x1f" + *r.DetailLink
	}
	if r.ContractNumber != "" {
		return "num\x1f" + r.ContractNumber
	}
	return "row\x1f" + strings.Join([]string{
		r.ID, r.ContractTitle, r.OpenDate, r.DeadlineDate, r.AgencyCode, r.CategoryCode,
	}, "\x1f")
}

// DedupRecords removes duplicates by identity key, keeping the first
// occurrence and preserving order. Idempotent.
func DedupRecords(records []ListingRecord) []ListingRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]ListingRecord, 0, len(records))
	for _, r := range records {
		key := r.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// CodeNameMap maps a short agency code to its full display name.
// Built once before the walk; read-only afterward.
type CodeNameMap map[string]string

// NormalizeSpace collapses runs of whitespace to single spaces and trims
// the ends.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
