// Package recordfile loads symbol records from YAML files. Each file
// contributes one intake batch whose origin is the file path.
package recordfile

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/record"
)

// File is the on-disk schema of a record file.
type File struct {
	Records []record.Raw `yaml:"records"`
}

// LoadGlobs loads every file matched by the given glob patterns. Matches are
// deduplicated and sorted so batch order does not depend on pattern order.
func LoadGlobs(patterns []string) ([]record.Batch, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, apperrors.ConfigError("bad record file glob").
				WithContext("pattern", pattern).
				Build()
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, apperrors.IntakeError("no record files matched").
			WithContext("patterns", patterns).
			Build()
	}
	sort.Strings(paths)

	batches := make([]record.Batch, 0, len(paths))
	for _, path := range paths {
		batch, err := Load(path)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// Load reads one record file into a batch.
func Load(path string) (record.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.Batch{}, apperrors.WrapError(err, apperrors.CategoryIntake, "read record file").
			WithContext("path", path).
			Build()
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return record.Batch{}, apperrors.WrapError(err, apperrors.CategoryIntake, "parse record file").
			WithContext("path", path).
			Build()
	}

	for i := range file.Records {
		if file.Records[i].Origin == "" {
			file.Records[i].Origin = path
		}
	}
	return record.Batch{Origin: path, Raws: file.Records}, nil
}
