package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

var (
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	docExtRe = regexp.MustCompile(`(?i)\.(pdf|docx?|xlsx?|zip|csv|txt)(?:$|[?#])`)
)

// pathMarkers flag download-style links whose targets carry no recognizable
// extension.
var pathMarkers = []string{"download", "document", "attachment", "amend"}

// parseFragments extracts contact email and file attachments from the
// detail and document-list fragments. The detail fragment's email wins;
// file order is detail fragment first, then document list, deduplicated by
// the (title, absolute url) pair.
func parseFragments(detailBody, detailURL, docsBody, docsURL string) (string, []model.FileLink, error) {
	detailDoc, err := goquery.NewDocumentFromReader(strings.NewReader(detailBody))
	if err != nil {
		return "", nil, eris.Wrap(err, "enrich: parse detail fragment")
	}
	docsDoc, err := goquery.NewDocumentFromReader(strings.NewReader(docsBody))
	if err != nil {
		return "", nil, eris.Wrap(err, "enrich: parse documents fragment")
	}

	email := extractEmail(detailDoc)
	if email == "" {
		email = extractEmail(docsDoc)
	}

	files := extractFiles(detailDoc, detailURL)
	files = append(files, extractFiles(docsDoc, docsURL)...)

	seen := make(map[string]struct{}, len(files))
	deduped := make([]model.FileLink, 0, len(files))
	for _, f := range files {
		key := f.Title + "\x1f" + f.URL
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, f)
	}

	return email, deduped, nil
}

// extractEmail prefers a mailto reference, taken verbatim up to the first
// "?", and falls back to an email-shaped token in the visible text.
func extractEmail(doc *goquery.Document) string {
	var email string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return true
		}
		addr := href[len("mailto:"):]
		if i := strings.Index(addr, "?"); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
		if addr != "" {
			email = addr
			return false
		}
		return true
	})
	if email != "" {
		return email
	}
	return emailRe.FindString(doc.Text())
}

// extractFiles scans every hyperlink, keeping document-shaped targets.
func extractFiles(doc *goquery.Document, baseURL string) []model.FileLink {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var files []model.FileLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		lower := strings.ToLower(href)
		if href == "" || href == "#" ||
			strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "mailto:") {
			return
		}

		abs := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}

		if !isDocumentTarget(abs) {
			return
		}

		title := model.NormalizeSpace(s.Text())
		if title == "" {
			title = model.NormalizeSpace(s.AttrOr("aria-label", ""))
		}
		if title == "" {
			title = "File"
		}

		files = append(files, model.FileLink{Title: title, URL: abs})
	})
	return files
}

// isDocumentTarget reports whether a link target looks like a downloadable
// document: a known extension, or a path marker like "download".
func isDocumentTarget(target string) bool {
	if docExtRe.MatchString(target) {
		return true
	}
	path := strings.ToLower(target)
	if u, err := url.Parse(target); err == nil && u.Path != "" {
		path = strings.ToLower(u.Path)
	}
	for _, marker := range pathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}
