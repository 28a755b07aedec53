package ruleset

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrollkit/scrollmatch/seqmatch"
)

func isYAML(p string) bool {
	l := strings.ToLower(p)
	return strings.HasSuffix(l, ".yml") || strings.HasSuffix(l, ".yaml")
}

// LoadDirRecursive loads every .yml/.yaml rule file under root, one rule per
// file. A single bad file fails the whole load.
func LoadDirRecursive(root string) ([]Rule, error) {
	var out []Rule
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		r, err := LoadRuleYAML(b)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// Install registers rules into a matcher table under their rule names.
func Install[C any](m *seqmatch.Matcher[string, C], rules []Rule) error {
	for _, r := range rules {
		if err := m.AddPatternWithSettings(r.Name, r.Pattern); err != nil {
			return err
		}
	}
	return nil
}
