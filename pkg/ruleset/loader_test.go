package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scrollkit/scrollmatch/seqmatch"
)

const loginRule = `
name: failed_login_burst
priority: 5
elements:
  - kind: exact
    value: LOGIN_FAIL
    min_repeat: 3
    max_repeat: 10
    greedy: true
  - kind: substring
    text: lockout
`

func TestLoadRuleYAML(t *testing.T) {
	r, err := LoadRuleYAML([]byte(loginRule))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Name != "failed_login_burst" {
		t.Fatalf("name = %q", r.Name)
	}
	if r.Priority != 5 {
		t.Fatalf("priority = %d", r.Priority)
	}
	if len(r.Pattern.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(r.Pattern.Elements))
	}
	set := r.Pattern.Elements[0].Settings()
	if set.MinRepeat != 3 || set.MaxRepeat != 10 || !set.Greedy {
		t.Fatalf("quantifier not carried through: %+v", set)
	}
}

func TestLoadedRuleMatches(t *testing.T) {
	r, err := LoadRuleYAML([]byte(loginRule))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	type ctx struct{ hits int }
	m := seqmatch.New[string, ctx](10)
	m.SetContext(ctx{})
	m.RegisterExtractor(1, func(st *seqmatch.MatchState[string], c *ctx) (seqmatch.Action, error) {
		c.hits++
		return seqmatch.Continue(), nil
	})
	r.Pattern.Settings.Extractor = 1
	if err := m.AddPatternWithSettings(r.Name, r.Pattern); err != nil {
		t.Fatalf("add: %v", err)
	}

	window := []string{
		"boot",
		"LOGIN_FAIL", "LOGIN_FAIL", "LOGIN_FAIL",
		"account lockout triggered",
		"idle",
	}
	if err := m.Run(window); err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.Context().hits != 1 {
		t.Fatalf("hits = %d, want 1", m.Context().hits)
	}
}

func TestLoadRuleAllKinds(t *testing.T) {
	doc := `
name: kinds
elements:
  - kind: wildcard
  - kind: range
    from: "400"
    to: "499"
  - kind: predicate
    builtin: has_prefix
    arg: "err:"
  - kind: repeat
    min_repeat: 1
    max_repeat: 3
    inner:
      kind: exact
      value: RETRY
  - kind: exact
    value: SHUTDOWN
    min_repeat: 0
    max_repeat: 0
`
	r, err := LoadRuleYAML([]byte(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(r.Pattern.Elements) != 5 {
		t.Fatalf("elements = %d, want 5", len(r.Pattern.Elements))
	}
	last := r.Pattern.Elements[4].Settings()
	if last.MinRepeat != 0 || last.MaxRepeat != 0 {
		t.Fatalf("negative assertion bounds lost: %+v", last)
	}
}

func TestLoadRuleErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing name", "elements:\n  - kind: wildcard\n"},
		{"no elements", "name: empty\n"},
		{"unknown kind", "name: x\nelements:\n  - kind: regex\n"},
		{"missing kind", "name: x\nelements:\n  - value: v\n"},
		{"repeat without inner", "name: x\nelements:\n  - kind: repeat\n"},
		{"unknown builtin", "name: x\nelements:\n  - kind: predicate\n    builtin: nope\n"},
		{"builtin missing arg", "name: x\nelements:\n  - kind: predicate\n    builtin: has_prefix\n"},
		{"substring without text", "name: x\nelements:\n  - kind: substring\n"},
		{"bad bounds", "name: x\nelements:\n  - kind: wildcard\n    min_repeat: 5\n    max_repeat: 2\n"},
	}
	for _, tc := range cases {
		if _, err := LoadRuleYAML([]byte(tc.doc)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestBuiltinPredicates(t *testing.T) {
	cases := []struct {
		builtin string
		arg     string
		input   string
		want    bool
	}{
		{"non_empty", "", "x", true},
		{"non_empty", "", "", false},
		{"numeric", "", "12.5", true},
		{"numeric", "", "abc", false},
		{"alpha", "", "abc", true},
		{"alpha", "", "ab1", false},
		{"upper", "", "ERR", true},
		{"upper", "", "Err", false},
		{"lower", "", "err", true},
		{"has_prefix", "sys.", "sys.boot", true},
		{"has_suffix", ".log", "app.log", true},
		{"contains", "oom", "kernel oom kill", true},
		{"contains", "oom", "all fine", false},
	}
	for _, tc := range cases {
		fn, err := builtinPredicate(tc.builtin, tc.arg)
		if err != nil {
			t.Fatalf("%s: %v", tc.builtin, err)
		}
		if fn(tc.input) != tc.want {
			t.Fatalf("%s(%q) = %v, want %v", tc.builtin, tc.input, !tc.want, tc.want)
		}
	}
}

func TestLoadDirRecursive(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "auth")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(p, doc string) {
		if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(root, "a.yaml"), "name: a\nelements:\n  - kind: wildcard\n")
	write(filepath.Join(sub, "b.yml"), "name: b\nelements:\n  - kind: exact\n    value: x\n")
	write(filepath.Join(root, "notes.txt"), "not a rule")

	rules, err := LoadDirRecursive(root)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rules))
	}
}

func TestLoadDirRecursiveBadFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad.yaml"), []byte("name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDirRecursive(root); err == nil {
		t.Fatal("a bad file must fail the load")
	}
}

func TestInstall(t *testing.T) {
	a, err := LoadRuleYAML([]byte("name: a\nelements:\n  - kind: wildcard\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadRuleYAML([]byte("name: b\nelements:\n  - kind: exact\n    value: x\n"))
	if err != nil {
		t.Fatal(err)
	}

	m := seqmatch.New[string, struct{}](10)
	if err := Install(m, []Rule{a, b}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if m.PatternCount() != 2 {
		t.Fatalf("patterns = %d, want 2", m.PatternCount())
	}
}
