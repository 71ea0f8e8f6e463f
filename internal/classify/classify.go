// Package classify maps a marker-stripped host reply to a judgment
// category. Classification is an ordered keyword cascade over the
// normalized text; the first matching rule wins, so the table order is
// the priority order.
package classify

import "strings"

// Category is a judgment label for one host reply.
type Category string

const (
	Solved     Category = "solved"
	Yes        Category = "yes"
	No         Category = "no"
	Partial    Category = "partial"
	Irrelevant Category = "irrelevant"
	Clarify    Category = "clarify"
	Close      Category = "close"
	Other      Category = "other"
)

type rule struct {
	category Category
	prefixes []string
	contains []string
}

// rules encodes the cascade. Solved phrasing is tested before yes
// phrasing: a solved reply usually contains an affirming word too.
var rules = []rule{
	{Solved, nil, []string{"恭喜破案", "恭喜你猜对"}},
	{Yes, []string{"是"}, []string{"完全正确"}},
	{No, []string{"不是"}, []string{"不对", "错误", "不正确"}},
	{Irrelevant, nil, []string{"无关", "不重要", "不相关"}},
	{Partial, nil, []string{"部分"}},
	{Clarify, nil, []string{"需要澄清", "不清楚", "模糊", "歧义"}},
	{Close, nil, []string{"接近", "差不多", "很接近"}},
}

// Classify labels a marker-stripped reply. Text that matches no rule is
// Other.
func Classify(text string) Category {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, r := range rules {
		if r.matches(normalized) {
			return r.category
		}
	}
	return Other
}

func (r rule) matches(s string) bool {
	for _, p := range r.prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	for _, sub := range r.contains {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// negativeMarkers is the keyword family the conversation analyzer uses
// to count a negative streak. It is deliberately looser than the No
// rule: any reply that quotes a rejection mid-sentence still counts.
var negativeMarkers = []string{"不是", "不对"}

// Negative reports whether a reply reads as a rejection.
func Negative(text string) bool {
	for _, m := range negativeMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
