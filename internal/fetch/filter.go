package fetch

import (
	"fmt"
	"strings"

	"boardwatch/internal/snapshot"
)

// Filter narrows a fetched snapshot using space-separated field:value rules.
// A leading dash excludes. Supported fields: type, status, label, assignee.
// An item is kept when it matches every include rule and no exclude rule.
type Filter struct {
	rules []filterRule
}

type filterRule struct {
	field   string
	value   string
	exclude bool
}

// ParseFilter parses a rule expression. The empty string yields a filter
// that keeps everything.
func ParseFilter(expr string) (*Filter, error) {
	f := &Filter{}
	for _, token := range strings.Fields(expr) {
		rule := filterRule{}
		if strings.HasPrefix(token, "-") {
			rule.exclude = true
			token = token[1:]
		}
		field, value, ok := strings.Cut(token, ":")
		if !ok || field == "" || value == "" {
			return nil, fmt.Errorf("malformed filter rule %q", token)
		}
		switch field {
		case "type", "status", "label", "assignee":
		default:
			return nil, fmt.Errorf("unknown filter field %q", field)
		}
		rule.field = field
		rule.value = value
		f.rules = append(f.rules, rule)
	}
	return f, nil
}

// Apply returns a snapshot holding only the matching items, preserving their
// order.
func (f *Filter) Apply(items *snapshot.Snapshot) *snapshot.Snapshot {
	if len(f.rules) == 0 {
		return items
	}
	out := snapshot.New()
	for _, id := range items.IDs() {
		item, _ := items.Get(id)
		if f.match(item) {
			out.Set(id, item)
		}
	}
	return out
}

func (f *Filter) match(item snapshot.Item) bool {
	for _, rule := range f.rules {
		matched := ruleMatches(rule, item)
		if rule.exclude && matched {
			return false
		}
		if !rule.exclude && !matched {
			return false
		}
	}
	return true
}

func ruleMatches(rule filterRule, item snapshot.Item) bool {
	switch rule.field {
	case "type":
		return strings.EqualFold(item.Type, rule.value)
	case "status":
		return strings.EqualFold(item.Status, rule.value)
	case "label":
		return containsFold(item.Labels, rule.value)
	case "assignee":
		return containsFold(item.Assignees, rule.value)
	}
	return false
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
