package walker

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bidwatch-cli/internal/grid"
	"github.com/sells-group/bidwatch-cli/internal/model"
)

// scriptedSession serves a fixed sequence of page snapshots and advances
// through them when the next-page control is clicked.
type scriptedSession struct {
	pages    []grid.Snapshot
	page     int
	navErr   error
	waitErr  error
	navs     int
	advances int
}

func (s *scriptedSession) Navigate(_ context.Context, _ string) error {
	s.navs++
	return s.navErr
}

func (s *scriptedSession) WaitAny(_ context.Context, selectors []string, _ time.Duration) (string, error) {
	if s.waitErr != nil {
		return "", s.waitErr
	}
	return selectors[0], nil
}

func (s *scriptedSession) Fetch(_ context.Context, _ string) (string, error) { return "", nil }

func (s *scriptedSession) Close() error { return nil }

func (s *scriptedSession) Evaluate(_ context.Context, _ string, out any) error {
	switch v := out.(type) {
	case *grid.Snapshot:
		*v = s.pages[s.page]
	case *grid.PageSignature:
		snap := s.pages[s.page]
		sig := grid.PageSignature{PageIndicator: strconv.Itoa(s.page + 1)}
		if len(snap.Rows) > 0 {
			sig.FirstRowID = snap.Rows[0].ID
			sig.FirstRowText = strings.Join(snap.Rows[0].Cells, " ")
		}
		*v = sig
	case *bool:
		s.advances++
		if s.page+1 < len(s.pages) {
			s.page++
			*v = true
		} else {
			*v = false
		}
	}
	return nil
}

var testHeaders = []string{"Bid #", "Title", "Open Date", "Deadline", "Agency", "Category"}

func bidRow(id, number, title, agency string) grid.Row {
	return grid.Row{ID: id, Cells: []string{number, title, "01/02/2026", "02/01/2026", agency, "96"}}
}

func newTestWalker(sess *scriptedSession, opts Options) *Walker {
	if opts.StartURL == "" {
		opts.StartURL = "https://bids.example.gov/list"
	}
	opts.WaitTimeout = 50 * time.Millisecond
	opts.SettleDelay = 5 * time.Millisecond
	return New(sess, grid.NewPaginator(sess, 2*time.Second), opts)
}

func TestWalk_TwoPagesDedupByContractNumber(t *testing.T) {
	// Rows carry no opaque id, so identity falls back to contract_number;
	// B-3 is re-shown on page two and dropped.
	sess := &scriptedSession{pages: []grid.Snapshot{
		{Headers: testHeaders, Rows: []grid.Row{
			bidRow("", "B-1", "Road resurfacing", "DOT"),
			bidRow("", "B-2", "Bridge inspection", "DOT"),
			bidRow("", "B-3", "HVAC replacement", "GSD"),
		}},
		{Headers: testHeaders, Rows: []grid.Row{
			bidRow("", "B-3", "HVAC replacement", "GSD"),
			bidRow("", "B-4", "Snow removal", "DPW"),
		}},
	}}

	res, err := newTestWalker(sess, Options{}).Walk(context.Background(), 10, 0)
	require.NoError(t, err)

	require.Len(t, res.Records, 4)
	assert.Equal(t, "B-1", res.Records[0].ContractNumber)
	assert.Equal(t, "B-2", res.Records[1].ContractNumber)
	assert.Equal(t, "B-3", res.Records[2].ContractNumber)
	assert.Equal(t, "B-4", res.Records[3].ContractNumber)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 5, res.RowsSeen)
	assert.Equal(t, 1, res.DupesDropped)
}

func TestWalk_SameNumberDifferentLinksBothKept(t *testing.T) {
	detailURL := func(id string) string {
		return "https://bids.example.gov/bidDetail?bidId=" + id
	}
	sess := &scriptedSession{pages: []grid.Snapshot{
		{Headers: testHeaders, Rows: []grid.Row{
			bidRow("row_1", "B-1", "Phase one", "DOT"),
			bidRow("row_2", "B-1", "Phase two", "DOT"),
		}},
	}}

	res, err := newTestWalker(sess, Options{DetailURL: detailURL}).Walk(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
}

func TestWalk_MaxItemsCap(t *testing.T) {
	sess := &scriptedSession{pages: []grid.Snapshot{
		{Headers: testHeaders, Rows: []grid.Row{
			bidRow("", "B-1", "a", "DOT"),
			bidRow("", "B-2", "b", "DOT"),
			bidRow("", "B-3", "c", "DOT"),
		}},
		{Headers: testHeaders, Rows: []grid.Row{
			bidRow("", "B-4", "d", "DOT"),
		}},
	}}

	res, err := newTestWalker(sess, Options{}).Walk(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 0, sess.advances, "stops before advancing once full")
}

func TestWalk_MaxPagesSoftCutoff(t *testing.T) {
	pages := make([]grid.Snapshot, 5)
	for i := range pages {
		pages[i] = grid.Snapshot{Headers: testHeaders, Rows: []grid.Row{
			bidRow("", "B-"+strconv.Itoa(i), "x", "DOT"),
		}}
	}
	sess := &scriptedSession{pages: pages}

	res, err := newTestWalker(sess, Options{}).Walk(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 2, sess.advances)
}

func TestWalk_ColumnOrderShiftAcrossPages(t *testing.T) {
	// Page two swaps the number and title columns; the mapping is rebuilt
	// per page so fields still land correctly.
	sess := &scriptedSession{pages: []grid.Snapshot{
		{
			Headers: []string{"Bid #", "Title"},
			Rows:    []grid.Row{{Cells: []string{"B-1", "First project"}}},
		},
		{
			Headers: []string{"Title", "Bid #"},
			Rows:    []grid.Row{{Cells: []string{"Second project", "B-2"}}},
		},
	}}

	res, err := newTestWalker(sess, Options{}).Walk(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "B-1", res.Records[0].ContractNumber)
	assert.Equal(t, "First project", res.Records[0].ContractTitle)
	assert.Equal(t, "B-2", res.Records[1].ContractNumber)
	assert.Equal(t, "Second project", res.Records[1].ContractTitle)
}

func TestWalk_CodeNameJoin(t *testing.T) {
	sess := &scriptedSession{pages: []grid.Snapshot{
		{Headers: testHeaders, Rows: []grid.Row{
			bidRow("", "B-1", "a", "DOT"),
			bidRow("", "B-2", "b", "ZZZ"),
		}},
	}}

	res, err := newTestWalker(sess, Options{
		CodeNames: model.CodeNameMap{"DOT": "Department of Transportation"},
	}).Walk(context.Background(), 10, 0)
	require.NoError(t, err)

	require.NotNil(t, res.Records[0].AgencyFull)
	assert.Equal(t, "Department of Transportation", *res.Records[0].AgencyFull)
	assert.Nil(t, res.Records[1].AgencyFull, "unresolved code stays null")
}

func TestWalk_ZeroRowPageIsNotAnError(t *testing.T) {
	sess := &scriptedSession{pages: []grid.Snapshot{
		{Headers: testHeaders, Rows: nil},
	}}

	res, err := newTestWalker(sess, Options{}).Walk(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Pages)
}

func TestWalk_WaitFallbackStillExtracts(t *testing.T) {
	sess := &scriptedSession{
		waitErr: eris.New("no selector matched"),
		pages: []grid.Snapshot{
			{Headers: testHeaders, Rows: []grid.Row{bidRow("", "B-1", "a", "DOT")}},
		},
	}

	res, err := newTestWalker(sess, Options{}).Walk(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestWalk_StartURLUnreachableIsFatal(t *testing.T) {
	sess := &scriptedSession{
		navErr: eris.New("net::ERR_NAME_NOT_RESOLVED"),
		pages:  []grid.Snapshot{{}},
	}

	_, err := newTestWalker(sess, Options{}).Walk(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reach start url")
}
