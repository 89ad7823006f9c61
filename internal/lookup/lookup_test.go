package lookup

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns a fixed body or error.
type fakeFetcher struct {
	body string
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return f.body, f.err
}

const lookupURL = "https://bids.example.gov/agencies"

func TestBuildCodeNameMap_HeaderMatch(t *testing.T) {
	f := &fakeFetcher{body: `<html><body>
		<table>
			<tr><th>Region</th><th>Phone</th></tr>
			<tr><td>North</td><td>555-0100</td></tr>
		</table>
		<table>
			<tr><th>Agency Name</th><th>Code</th></tr>
			<tr><td>Department of Transportation</td><td>DOT</td></tr>
			<tr><td>General Services Division</td><td> GSD </td></tr>
			<tr><td></td><td>EMPTY</td></tr>
		</table>
	</body></html>`}

	m := BuildCodeNameMap(context.Background(), f, lookupURL)
	require.Len(t, m, 2)
	assert.Equal(t, "Department of Transportation", m["DOT"])
	assert.Equal(t, "General Services Division", m["GSD"])
}

func TestBuildCodeNameMap_FirstTableFallback(t *testing.T) {
	f := &fakeFetcher{body: `<html><body>
		<table>
			<tr><td>DOT</td><td>Department of Transportation</td></tr>
			<tr><td>DPW</td><td>Department of Public Works</td></tr>
		</table>
	</body></html>`}

	m := BuildCodeNameMap(context.Background(), f, lookupURL)
	require.Len(t, m, 2)
	assert.Equal(t, "Department of Public Works", m["DPW"])
}

func TestBuildCodeNameMap_FirstEntryWinsOnDuplicateCode(t *testing.T) {
	f := &fakeFetcher{body: `<html><body>
		<table>
			<tr><th>Code</th><th>Name</th></tr>
			<tr><td>DOT</td><td>Department of Transportation</td></tr>
			<tr><td>DOT</td><td>Dept. of Transp. (old)</td></tr>
		</table>
	</body></html>`}

	m := BuildCodeNameMap(context.Background(), f, lookupURL)
	assert.Equal(t, "Department of Transportation", m["DOT"])
}

func TestBuildCodeNameMap_DegradesToEmpty(t *testing.T) {
	// Fetch failure.
	m := BuildCodeNameMap(context.Background(), &fakeFetcher{err: eris.New("503")}, lookupURL)
	assert.Empty(t, m)

	// No table at all.
	m = BuildCodeNameMap(context.Background(), &fakeFetcher{body: `<html><body><p>maintenance</p></body></html>`}, lookupURL)
	assert.Empty(t, m)

	// No URL configured.
	m = BuildCodeNameMap(context.Background(), &fakeFetcher{}, "")
	assert.Empty(t, m)
}
