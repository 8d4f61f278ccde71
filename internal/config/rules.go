package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// Rule is one per-glob content default: frontmatter fields applied to every
// content file whose source path matches the glob.
//
// Globs use doublestar syntax with `/` as the separator; `**` matches any
// number of path segments, including zero.
type Rule struct {
	Glob     string
	Defaults FileConfig
}

// Rules is an ordered list of per-glob content defaults. Order is the
// declaration order in the config file: when several globs match a path,
// later rules are considered more specific.
type Rules struct {
	rules []Rule
}

// NewRules validates the glob patterns and builds a rule list.
func NewRules(rules []Rule) (Rules, error) {
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.Glob) {
			return Rules{}, fmt.Errorf("invalid content glob %q", r.Glob)
		}
	}
	return Rules{rules: rules}, nil
}

// ForPath returns the defaults of every rule matching the given
// '/'-separated source path, in declaration order. Callers that want
// more-specific-wins semantics apply the result in reverse.
func (r Rules) ForPath(path string) []*FileConfig {
	var matched []*FileConfig
	for i := range r.rules {
		ok, err := doublestar.Match(r.rules[i].Glob, path)
		if err == nil && ok {
			matched = append(matched, &r.rules[i].Defaults)
		}
	}
	return matched
}

// Len returns the number of rules.
func (r Rules) Len() int {
	return len(r.rules)
}

// defaultRules is used when the config file has no [content] section:
// markdown files are converted to HTML.
func defaultRules() Rules {
	process := ProcessMarkdownToHTML
	rules, err := NewRules([]Rule{
		{Glob: "**/*.md", Defaults: FileConfig{Process: &process}},
	})
	if err != nil {
		panic("built-in content rules are valid: " + err.Error())
	}
	return rules
}

// rulesFromRaw reassembles the ordered rule list from the decoded
// [content] tables. TOML decoding into a map loses declaration order, so
// the order is recovered from the decode metadata.
func rulesFromRaw(content map[string]FileConfig, md toml.MetaData) (Rules, error) {
	if content == nil {
		return defaultRules(), nil
	}

	seen := make(map[string]bool, len(content))
	ordered := make([]Rule, 0, len(content))
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "content" || seen[key[1]] {
			continue
		}
		glob := key[1]
		defaults, ok := content[glob]
		if !ok {
			continue
		}
		seen[glob] = true
		ordered = append(ordered, Rule{Glob: glob, Defaults: defaults})
	}

	return NewRules(ordered)
}
