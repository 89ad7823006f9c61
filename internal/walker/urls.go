package walker

import (
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
)

// ResolveTemplate builds an id→URL function from a printf-style template
// holding one %s verb. Relative templates are resolved against base, so the
// same config works whether the deployment exposes absolute or site-relative
// endpoints.
func ResolveTemplate(base, template string) (func(id string) string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, eris.Wrapf(err, "walker: parse base url %s", base)
	}
	return func(id string) string {
		raw := fmt.Sprintf(template, url.QueryEscape(id))
		ref, err := url.Parse(raw)
		if err != nil {
			return raw
		}
		return baseURL.ResolveReference(ref).String()
	}, nil
}
