package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDetailURL(id string) string {
	return "https://bids.example.gov/bidDetail?bidId=" + id
}

func TestExtractRow_FullRow(t *testing.T) {
	mapping := ColumnMapping{
		"contract_number": 0,
		"contract_title":  1,
		"open_date":       2,
		"deadline_date":   3,
		"agency_code":     4,
		"category_code":   5,
	}
	row := Row{
		ID:    "row_17",
		Cells: []string{" B-100 ", "Road   resurfacing", "01/02/2026", "02/01/2026", "DOT", "96"},
	}

	rec, ok := ExtractRow(row, mapping, testDetailURL)
	require.True(t, ok)
	assert.Equal(t, "row_17", rec.ID)
	assert.Equal(t, "B-100", rec.ContractNumber)
	assert.Equal(t, "Road resurfacing", rec.ContractTitle)
	assert.Equal(t, "01/02/2026", rec.OpenDate)
	assert.Equal(t, "DOT", rec.AgencyCode)
	require.NotNil(t, rec.DetailLink)
	assert.Equal(t, "https://bids.example.gov/bidDetail?bidId=row_17", *rec.DetailLink)
	assert.NotNil(t, rec.Files)
}

func TestExtractRow_ShortRow(t *testing.T) {
	// A 2-cell row against a mapping expecting 4 fields: missing cells
	// resolve to empty string, never an error.
	mapping := ColumnMapping{
		"contract_number": 0,
		"contract_title":  1,
		"open_date":       2,
		"deadline_date":   3,
	}
	row := Row{Cells: []string{"B-7", "Sidewalk repair"}}

	rec, ok := ExtractRow(row, mapping, testDetailURL)
	require.True(t, ok)
	assert.Equal(t, "B-7", rec.ContractNumber)
	assert.Equal(t, "", rec.OpenDate)
	assert.Equal(t, "", rec.DeadlineDate)
}

func TestExtractRow_NotFoundSentinel(t *testing.T) {
	mapping := ColumnMapping{
		"contract_number": 0,
		"contract_title":  -1,
	}
	row := Row{Cells: []string{"B-8", "ignored"}}

	rec, ok := ExtractRow(row, mapping, testDetailURL)
	require.True(t, ok)
	assert.Equal(t, "", rec.ContractTitle)
}

func TestExtractRow_EmptyIDMeansNullLink(t *testing.T) {
	mapping := ColumnMapping{"contract_number": 0}
	row := Row{Cells: []string{"B-9"}}

	rec, ok := ExtractRow(row, mapping, testDetailURL)
	require.True(t, ok)
	assert.Nil(t, rec.DetailLink)
}

func TestExtractRow_DropsNonViable(t *testing.T) {
	mapping := ColumnMapping{
		"contract_number": -1,
		"contract_title":  -1,
		"open_date":       0,
	}
	row := Row{ID: "row_3", Cells: []string{"01/02/2026"}}

	_, ok := ExtractRow(row, mapping, testDetailURL)
	assert.False(t, ok)
}
