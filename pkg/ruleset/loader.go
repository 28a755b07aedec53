// Package ruleset loads string pattern definitions from YAML documents and
// compiles them into runnable patterns. Extractor hooks are code, not data;
// rules reference them by numeric id and the host binds the ids at startup.
package ruleset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/scrollkit/scrollmatch/seqmatch"
)

// Rule is one compiled pattern plus its table identity.
type Rule struct {
	Name     string
	Priority uint32
	Pattern  seqmatch.Pattern[string]
}

type rawRule struct {
	Name      string       `yaml:"name"`
	Priority  uint32       `yaml:"priority"`
	Extractor int          `yaml:"extractor"`
	Elements  []rawElement `yaml:"elements"`
}

// repeat bounds are pointers so "max_repeat: 0" (negative assertion) is
// distinguishable from an absent field.
type rawElement struct {
	Kind      string      `yaml:"kind"`
	Value     string      `yaml:"value"`
	Text      string      `yaml:"text"`
	From      string      `yaml:"from"`
	To        string      `yaml:"to"`
	Builtin   string      `yaml:"builtin"`
	Arg       string      `yaml:"arg"`
	Inner     *rawElement `yaml:"inner"`
	MinRepeat *int        `yaml:"min_repeat"`
	MaxRepeat *int        `yaml:"max_repeat"`
	Greedy    *bool       `yaml:"greedy"`
	Optional  bool        `yaml:"optional"`
	Extractor int         `yaml:"extractor"`
}

// LoadRuleYAML parses a single rule document and compiles its elements.
func LoadRuleYAML(b []byte) (Rule, error) {
	var rr rawRule
	if err := yaml.Unmarshal(b, &rr); err != nil {
		return Rule{}, err
	}
	if strings.TrimSpace(rr.Name) == "" {
		return Rule{}, errors.New("missing rule name")
	}
	if len(rr.Elements) == 0 {
		return Rule{}, fmt.Errorf("rule %s: no elements", rr.Name)
	}

	elements := make([]seqmatch.Element[string], 0, len(rr.Elements))
	for i := range rr.Elements {
		el, err := compileElement(&rr.Elements[i])
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s element %d: %w", rr.Name, i, err)
		}
		elements = append(elements, el)
	}

	p := seqmatch.NewPatternWithSettings(elements, seqmatch.PatternSettings{
		Priority:  rr.Priority,
		Extractor: seqmatch.ExtractorID(rr.Extractor),
	})
	if err := p.Validate(rr.Name); err != nil {
		return Rule{}, err
	}
	return Rule{Name: rr.Name, Priority: rr.Priority, Pattern: p}, nil
}

func compileElement(re *rawElement) (seqmatch.Element[string], error) {
	var zero seqmatch.Element[string]
	set := elementSettings(re)

	switch strings.ToLower(strings.TrimSpace(re.Kind)) {
	case "exact":
		return seqmatch.Exact(re.Value, set...), nil

	case "substring":
		if re.Text == "" {
			return zero, errors.New("substring element needs text")
		}
		return seqmatch.SubstringOf[string](re.Text, set...), nil

	case "wildcard":
		return seqmatch.Wildcard[string](set...), nil

	case "range":
		if re.From == "" && re.To == "" {
			return zero, errors.New("range element needs from and to")
		}
		return seqmatch.Range(re.From, re.To, set...), nil

	case "predicate":
		fn, err := builtinPredicate(re.Builtin, re.Arg)
		if err != nil {
			return zero, err
		}
		return seqmatch.Predicate(fn, set...), nil

	case "repeat":
		if re.Inner == nil {
			return zero, errors.New("repeat element needs inner")
		}
		inner, err := compileElement(re.Inner)
		if err != nil {
			return zero, err
		}
		return seqmatch.Repeat(inner, set...), nil

	case "":
		return zero, errors.New("missing element kind")
	default:
		return zero, fmt.Errorf("unknown element kind %q", re.Kind)
	}
}

// elementSettings maps explicit YAML fields onto ElementSettings; a fully
// defaulted element attaches none so the engine defaults apply.
func elementSettings(re *rawElement) []seqmatch.ElementSettings {
	if re.MinRepeat == nil && re.MaxRepeat == nil && re.Greedy == nil &&
		!re.Optional && re.Extractor == 0 {
		return nil
	}
	s := seqmatch.DefaultSettings()
	if re.MinRepeat != nil {
		s.MinRepeat = *re.MinRepeat
	}
	if re.MaxRepeat != nil {
		s.MaxRepeat = *re.MaxRepeat
	}
	if re.Greedy != nil {
		s.Greedy = *re.Greedy
	}
	s.Optional = re.Optional
	s.Extractor = seqmatch.ExtractorID(re.Extractor)
	return []seqmatch.ElementSettings{s}
}

// builtinPredicate resolves a named predicate. Hooks needing real logic
// belong in extractor code; these cover the common text shapes.
func builtinPredicate(name, arg string) (func(string) bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "non_empty":
		return func(s string) bool { return s != "" }, nil
	case "numeric":
		return func(s string) bool {
			_, err := strconv.ParseFloat(s, 64)
			return err == nil
		}, nil
	case "alpha":
		return func(s string) bool {
			if s == "" {
				return false
			}
			for _, r := range s {
				if !unicode.IsLetter(r) {
					return false
				}
			}
			return true
		}, nil
	case "upper":
		return func(s string) bool { return s != "" && s == strings.ToUpper(s) }, nil
	case "lower":
		return func(s string) bool { return s != "" && s == strings.ToLower(s) }, nil
	case "has_prefix":
		if arg == "" {
			return nil, errors.New("has_prefix needs arg")
		}
		return func(s string) bool { return strings.HasPrefix(s, arg) }, nil
	case "has_suffix":
		if arg == "" {
			return nil, errors.New("has_suffix needs arg")
		}
		return func(s string) bool { return strings.HasSuffix(s, arg) }, nil
	case "contains":
		if arg == "" {
			return nil, errors.New("contains needs arg")
		}
		return func(s string) bool { return strings.Contains(s, arg) }, nil
	case "":
		return nil, errors.New("predicate element needs builtin")
	default:
		return nil, fmt.Errorf("unknown builtin predicate %q", name)
	}
}
