package store

import (
	"github.com/roach88/rulekit/internal/canonical"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// RuleSetFingerprint hashes the identity of each rule in rs: name,
// description and priority, in evaluation order. Conditions and actions
// are code and are not part of the fingerprint.
func RuleSetFingerprint(rs *rules.Rules) (string, error) {
	entries := make([]any, 0, rs.Len())
	for r := range rs.All() {
		entries = append(entries, map[string]any{
			"name":        r.Name(),
			"description": r.Description(),
			"priority":    r.Priority(),
		})
	}
	return canonical.Fingerprint(canonical.DomainRuleSet, entries)
}

// FactsJSON returns the canonical JSON of fs.
func FactsJSON(fs *facts.Facts) (string, error) {
	data, err := canonical.Marshal(fs.AsMap())
	if err != nil {
		return "", err
	}
	return string(data), nil
}
