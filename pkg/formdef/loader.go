package formdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-onboard/pkg/model"
)

// Store holds loaded form definitions keyed by id.
type Store struct {
	forms   map[string]model.FormDefinition
	sources map[string]string
}

// LoadFS walks fsys and loads every .json, .yaml and .yml file. A file holds
// either one form or a document with a "forms" list. Each form is decorated
// (default ids, defaults, sanitised text) and checked with model.Check; all
// problems across files are joined into the returned error. When fsys is nil
// the store is empty.
func LoadFS(fsys fs.FS, decorators ...model.Decorator) (*Store, error) {
	store := &Store{
		forms:   make(map[string]model.FormDefinition),
		sources: make(map[string]string),
	}
	if fsys == nil {
		return store, nil
	}

	chain := append([]model.Decorator{model.DefaultFieldIDs, Defaults, Sanitize}, decorators...)

	var problems []error
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", p, err)
		}
		forms, err := Parse(data, p)
		if err != nil {
			problems = append(problems, err)
			return nil
		}

		for _, form := range forms {
			if err := model.Decorate(&form, chain...); err != nil {
				problems = append(problems, fmt.Errorf("formdef: decorate %s: %w", p, err))
				continue
			}
			if err := model.Check(form); err != nil {
				problems = append(problems, fmt.Errorf("formdef: %s: %w", p, err))
				continue
			}
			if prev, exists := store.sources[form.ID]; exists {
				problems = append(problems, fmt.Errorf("formdef: duplicate form id %q (files %s and %s)", form.ID, prev, p))
				continue
			}
			store.forms[form.ID] = form
			store.sources[form.ID] = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return store, nil
}

type documentFile struct {
	Forms []model.FormDefinition `json:"forms" yaml:"forms"`
}

// Parse decodes the forms held in one file. JSON is tried first, then YAML.
func Parse(data []byte, source string) ([]model.FormDefinition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("formdef: file %s is empty", source)
	}

	var probe map[string]any
	isJSON := json.Unmarshal(data, &probe) == nil
	if !isJSON {
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("formdef: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}

	decode := func(out any) error {
		if isJSON {
			return json.Unmarshal(data, out)
		}
		return yaml.Unmarshal(data, out)
	}

	if _, ok := probe["forms"]; ok {
		var doc documentFile
		if err := decode(&doc); err != nil {
			return nil, fmt.Errorf("formdef: decode %s: %w", source, err)
		}
		return doc.Forms, nil
	}

	var form model.FormDefinition
	if err := decode(&form); err != nil {
		return nil, fmt.Errorf("formdef: decode %s: %w", source, err)
	}
	return []model.FormDefinition{form}, nil
}

// Form returns the form with id.
func (s *Store) Form(id string) (model.FormDefinition, bool) {
	if s == nil {
		return model.FormDefinition{}, false
	}
	form, ok := s.forms[id]
	return form, ok
}

// Source reports the file a form was loaded from.
func (s *Store) Source(id string) string {
	if s == nil {
		return ""
	}
	return s.sources[id]
}

// Forms returns every form ordered by id.
func (s *Store) Forms() []model.FormDefinition {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.FormDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.forms[id])
	}
	return out
}

// Empty reports whether no form was loaded.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func isFormFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
