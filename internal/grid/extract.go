package grid

import (
	"github.com/sells-group/bidwatch-cli/internal/model"
)

// Row is one structural grid row as captured from the rendered page.
type Row struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// Snapshot is one page's worth of rendered grid content.
type Snapshot struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// cell returns the whitespace-normalized cell at index idx, or empty string
// when the index is the not-found sentinel or past the row's end.
func (r Row) cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return model.NormalizeSpace(r.Cells[idx])
}

// ExtractRow converts a structural row into a ListingRecord using the
// page's column mapping. detailURL derives the bookmarkable link from the
// row's opaque identifier; when the identifier is empty the link is null.
// The second return is false for rows that carry neither a contract number
// nor a title; callers drop those.
func ExtractRow(row Row, mapping ColumnMapping, detailURL func(id string) string) (model.ListingRecord, bool) {
	rec := model.ListingRecord{
		ID:             model.NormalizeSpace(row.ID),
		ContractNumber: row.cell(mapping["contract_number"]),
		ContractTitle:  row.cell(mapping["contract_title"]),
		OpenDate:       row.cell(mapping["open_date"]),
		DeadlineDate:   row.cell(mapping["deadline_date"]),
		AgencyCode:     row.cell(mapping["agency_code"]),
		CategoryCode:   row.cell(mapping["category_code"]),
		Files:          []model.FileLink{},
	}

	if rec.ID != "" && detailURL != nil {
		link := detailURL(rec.ID)
		rec.DetailLink = &link
	}

	if !rec.Viable() {
		return model.ListingRecord{}, false
	}
	return rec, true
}
