package grid

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bidwatch-cli/internal/browser"
)

// RowSelectors is the ordered fallback list of row-marker patterns used to
// wait for a populated grid. jqGrid variants first, then progressively more
// generic table shapes.
var RowSelectors = []string{
	"table.ui-jqgrid-btable tr.jqgrow",
	"table[id*='grid'] tbody tr[id]",
	"table[summary*='bid'] tbody tr",
	"table tbody tr td",
}

// SnapshotScript captures the current page's grid content: header labels in
// column order plus every data row's opaque id and cell texts. It scans
// jqGrid structures first and falls back to the densest plain table.
const SnapshotScript = `(() => {
	const cellText = (el) => (el.innerText || el.textContent || "").trim();

	const fromTable = (headerRow, bodyRows) => {
		const headers = Array.from(headerRow ? headerRow.cells : []).map(cellText);
		const rows = [];
		for (const tr of bodyRows) {
			const cells = Array.from(tr.cells).map(cellText);
			if (cells.length === 0 || cells.every(c => c === "")) { continue; }
			rows.push({ id: tr.id || tr.getAttribute("data-id") || "", cells: cells });
		}
		return { headers: headers, rows: rows };
	};

	// jqGrid: labels live in a separate header table.
	const jq = document.querySelector("table.ui-jqgrid-btable");
	if (jq) {
		const labels = Array.from(document.querySelectorAll(".ui-jqgrid-labels th"))
			.map(cellText);
		const body = Array.from(jq.querySelectorAll("tr.jqgrow"));
		const snap = fromTable(null, body);
		snap.headers = labels;
		if (snap.rows.length > 0) { return snap; }
	}

	// Generic: pick the table with the most data rows.
	let best = null;
	let bestCount = 0;
	for (const table of document.querySelectorAll("table")) {
		const body = table.tBodies.length > 0
			? Array.from(table.tBodies[0].rows)
			: Array.from(table.rows).slice(1);
		const dataRows = body.filter(tr => tr.cells.length > 1);
		if (dataRows.length > bestCount) {
			best = { table: table, rows: dataRows };
			bestCount = dataRows.length;
		}
	}
	if (!best) { return { headers: [], rows: [] }; }

	let headerRow = best.table.tHead && best.table.tHead.rows.length > 0
		? best.table.tHead.rows[0]
		: null;
	if (!headerRow && best.table.rows.length > 0 && best.table.rows[0] !== best.rows[0]) {
		headerRow = best.table.rows[0];
	}
	return fromTable(headerRow, best.rows);
})()`

// ReadSnapshot evaluates the snapshot script against the live page.
func ReadSnapshot(ctx context.Context, sess browser.Session) (*Snapshot, error) {
	var snap Snapshot
	if err := sess.Evaluate(ctx, SnapshotScript, &snap); err != nil {
		return nil, eris.Wrap(err, "grid: read snapshot")
	}
	return &snap, nil
}
