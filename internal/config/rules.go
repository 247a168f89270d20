package config

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// builtinRules holds the rule sets shipped with the binary, one file per
// language code.
//
//go:embed rules/*.yml
var builtinRules embed.FS

// StringSet is a read-only set of tag or label codes. It marshals to and
// from a YAML list.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given codes.
func NewStringSet(codes ...string) StringSet {
	s := make(StringSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in the set. A nil set contains nothing.
func (s StringSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Slice returns the codes in sorted order.
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *StringSet) UnmarshalYAML(node *yaml.Node) error {
	var codes []string
	if err := node.Decode(&codes); err != nil {
		return err
	}
	*s = NewStringSet(codes...)
	return nil
}

func (s StringSet) MarshalYAML() (any, error) {
	return s.Slice(), nil
}

// RuleSet holds the language-specific tag and label sets that drive term
// extraction. It is loaded once and never mutated afterwards.
type RuleSet struct {
	Language string `yaml:"language"`

	NominalTags       StringSet `yaml:"nominalTags"`
	AdjectivalTags    StringSet `yaml:"adjectivalTags"`
	DeterminerTags    StringSet `yaml:"determinerTags"`
	PrepositionalTags StringSet `yaml:"prepositionalTags"`
	OpenClassTags     StringSet `yaml:"openClassTags"`

	// TermStopTags are heads whose dependents are never absorbed.
	TermStopTags StringSet `yaml:"termStopTags"`
	// NonStandaloneTags never form a candidate on their own.
	NonStandaloneTags StringSet `yaml:"nonStandaloneTags"`
	// NonStandaloneIfHasDependents are dropped as kernels when the token has
	// dependents in the full parse.
	NonStandaloneIfHasDependents StringSet `yaml:"nonStandaloneIfHasDependents"`

	// ZeroDepthLabels do not count toward the perceived depth.
	ZeroDepthLabels    StringSet `yaml:"zeroDepthLabels"`
	NonTopLevelLabels  StringSet `yaml:"nonTopLevelLabels"`
	CoordinationLabels StringSet `yaml:"coordinationLabels"`

	CanonicalNumber string `yaml:"canonicalNumber"`
	CanonicalGender string `yaml:"canonicalGender"`
}

// Validate checks the fields term extraction cannot work without.
func (r *RuleSet) Validate() error {
	if len(r.NominalTags) == 0 {
		return fmt.Errorf("rule set %q: nominalTags is required", r.Language)
	}
	if r.CanonicalNumber == "" {
		return fmt.Errorf("rule set %q: canonicalNumber is required", r.Language)
	}
	return nil
}

// BuiltinRuleSet returns the embedded rule set for a language code.
func BuiltinRuleSet(lang string) (*RuleSet, error) {
	data, err := builtinRules.ReadFile("rules/" + lang + ".yml")
	if err != nil {
		return nil, fmt.Errorf("no built-in rule set for language %q", lang)
	}
	return parseRuleSet(data)
}

// LoadRuleSet reads a rule set from a YAML file.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	return parseRuleSet(data)
}

func parseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}
