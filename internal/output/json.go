// Package output writes the final record set as a pretty-printed JSON
// array, one file per run.
package output

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bidwatch-cli/internal/model"
)

// WriteRecords serializes records to path. The write goes through a temp
// file in the destination directory and a rename, so a crashed run never
// leaves a truncated output file behind.
func WriteRecords(path string, records []model.ListingRecord) error {
	if records == nil {
		records = []model.ListingRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "output: marshal records")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bidwatch-*.json")
	if err != nil {
		return eris.Wrap(err, "output: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "output: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "output: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "output: close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "output: rename into place")
	}
	return nil
}
