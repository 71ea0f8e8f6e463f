package game

import (
	"strings"

	"github.com/openclue/soupmaster/internal/classify"
)

// Analysis summarizes the recent conversation for prompt construction
// and hint escalation. All fields are declared up front, including the
// explicit hint request, so call sites never smuggle flags through an
// untyped bag.
type Analysis struct {
	// ConsecutiveNoCount is the current run of negative judgments,
	// counted backward from the most recent assistant reply.
	ConsecutiveNoCount int
	// TotalQuestions is the number of player questions in the window.
	TotalQuestions int
	// QuestionCategories counts questions per topic bucket. A question
	// may land in several buckets.
	QuestionCategories map[string]int
	// HintRequested is set when the player explicitly asked for a hint
	// this exchange.
	HintRequested bool
}

// questionBuckets maps topic names to the keywords that put a question
// in that bucket. Order fixes tie-breaking when picking the least-asked
// topic.
var questionBuckets = []struct {
	name     string
	keywords []string
}{
	{"人物", []string{"人", "谁", "男人", "女人", "身份", "职业"}},
	{"时间", []string{"时间", "时候", "何时", "天", "夜", "日"}},
	{"地点", []string{"地方", "地点", "哪里", "何处", "房间", "屋"}},
	{"物品", []string{"东西", "物品", "刀", "电话", "钥匙", "钱"}},
	{"原因", []string{"为什么", "原因", "为何", "动机", "目的"}},
}

// Analyze derives session-level signals from the message history,
// bounded to the most recent window messages. A window of zero means
// unbounded.
func Analyze(history []Message, window int, hintRequested bool) Analysis {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	a := Analysis{
		QuestionCategories: map[string]int{},
		HintRequested:      hintRequested,
	}

	// Walk assistant replies from the most recent backward; the streak
	// ends at the first non-negative one.
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != RoleAssistant {
			continue
		}
		if !classify.Negative(history[i].Content) {
			break
		}
		a.ConsecutiveNoCount++
	}

	for _, msg := range history {
		if msg.Role != RoleUser {
			continue
		}
		a.TotalQuestions++
		for _, bucket := range questionBuckets {
			if containsAny(msg.Content, bucket.keywords) {
				a.QuestionCategories[bucket.name]++
			}
		}
	}

	return a
}

// LeastAskedCategory returns the topic with the lowest non-zero count,
// or "" when no question matched any bucket.
func (a Analysis) LeastAskedCategory() string {
	best := ""
	bestCount := 0
	for _, bucket := range questionBuckets {
		count := a.QuestionCategories[bucket.name]
		if count == 0 {
			continue
		}
		if best == "" || count < bestCount {
			best = bucket.name
			bestCount = count
		}
	}
	return best
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
