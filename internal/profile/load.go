package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rana718/synthdb/internal/errors"
)

// Load reads a profile file (YAML or JSON):
//
//	users.country:
//	  - {value: DE, weight: 40}
//	  - {value: FR, weight: 12}
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile %s", path)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to parse profile %s", path)
	}
	for key, entries := range p {
		if !strings.Contains(key, ".") {
			return nil, errors.WithHint(errors.Newf("profile key %q is not table.column", key),
				"qualify every column with its table name")
		}
		for _, e := range entries {
			if e.Weight < 0 {
				return nil, errors.Newf("profile %s: negative weight for %q", key, e.Value)
			}
		}
	}
	return p, nil
}

// Save writes a profile as YAML with keys in sorted order, creating the
// parent directory if needed.
func (p Profile) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create profile directory")
		}
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		var value yaml.Node
		if err := value.Encode(p[k]); err != nil {
			return errors.Wrapf(err, "failed to encode profile %s", k)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &value)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to encode profile")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "failed to write profile")
}
