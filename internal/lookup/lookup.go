// Package lookup builds the agency code→name join map from a secondary
// page. Every failure mode degrades to an empty map; this stage never fails
// a run.
package lookup

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

// Fetcher issues an authenticated sub-request and returns the body as text.
// Satisfied by browser.Session.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

var (
	codeAliases = []string{"code", "abbr", "id"}
	nameAliases = []string{"name", "agency", "organization", "department"}
)

// BuildCodeNameMap fetches the lookup page and extracts (code, name) pairs
// from the table whose headers best match code and name semantics, falling
// back to the first table on the page. An empty pageURL yields an empty map.
func BuildCodeNameMap(ctx context.Context, fetcher Fetcher, pageURL string) model.CodeNameMap {
	log := zap.L().With(zap.String("component", "lookup"))
	out := model.CodeNameMap{}

	if pageURL == "" {
		return out
	}

	body, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		log.Warn("lookup: fetch failed, continuing without join",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return out
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		log.Warn("lookup: parse failed, continuing without join", zap.Error(err))
		return out
	}

	table, codeIdx, nameIdx := pickTable(doc)
	if table == nil {
		log.Warn("lookup: no table found, continuing without join")
		return out
	}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= codeIdx || cells.Length() <= nameIdx {
			return
		}
		code := model.NormalizeSpace(cells.Eq(codeIdx).Text())
		name := model.NormalizeSpace(cells.Eq(nameIdx).Text())
		if code == "" || name == "" {
			return
		}
		if _, dup := out[code]; !dup {
			out[code] = name
		}
	})

	log.Info("lookup: code map built", zap.Int("entries", len(out)))
	return out
}

// pickTable selects the table with the best code+name header match. When no
// headers match, the first table is used with columns 0 and 1.
func pickTable(doc *goquery.Document) (*goquery.Selection, int, int) {
	var (
		best      *goquery.Selection
		bestScore int
		codeIdx   = 0
		nameIdx   = 1
	)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var headers []string
		table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(model.NormalizeSpace(cell.Text())))
		})

		ci := matchHeader(headers, codeAliases)
		ni := matchHeader(headers, nameAliases)

		score := 0
		if ci >= 0 {
			score++
		}
		if ni >= 0 {
			score++
		}
		if ci >= 0 && ni >= 0 && ci != ni && score+1 > bestScore {
			best = table
			bestScore = score + 1
			codeIdx = ci
			nameIdx = ni
		}
	})

	if best != nil {
		return best, codeIdx, nameIdx
	}

	first := doc.Find("table").First()
	if first.Length() == 0 {
		return nil, 0, 0
	}
	return first, 0, 1
}

func matchHeader(headers, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if h != "" && strings.Contains(h, alias) {
				return i
			}
		}
	}
	return -1
}
