package game

import (
	"fmt"

	"github.com/openclue/soupmaster/internal/config"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// SelectHints decides what extra guidance the host prompt should carry
// this exchange. Triggers are independent: any subset may fire, and the
// selected lines are concatenated into the host-only guidance block.
// With no judgment aid (or an aid without hint directions) each trigger
// degrades to a generic "player seems stuck" instruction.
func SelectHints(a Analysis, aid *puzzle.JudgmentAid, cfg config.Game) []string {
	var hints []string

	if a.ConsecutiveNoCount >= cfg.NoStreakThreshold {
		idx := a.ConsecutiveNoCount/cfg.NoStreakThreshold - 1
		if dir, ok := hintDirection(aid, idx); ok {
			hints = append(hints, fmt.Sprintf("玩家连续%d次\"不是\"，卡住了。请用这个方向引导：%s", a.ConsecutiveNoCount, dir))
		} else if aid != nil {
			hints = append(hints, fmt.Sprintf("玩家连续%d次\"不是\"，卡住了。给一个方向提示。", a.ConsecutiveNoCount))
		} else {
			hints = append(hints, fmt.Sprintf("玩家连续%d次\"不是\"，卡住了。回答后给一个与本题汤底相关的具体方向提示。", a.ConsecutiveNoCount))
		}
	}

	if a.TotalQuestions >= cfg.HintVolumeThreshold {
		if least := a.LeastAskedCategory(); least != "" {
			hints = append(hints, fmt.Sprintf("玩家已问%d次，建议引导关注%s方面。", a.TotalQuestions, least))
		}
	}

	if a.HintRequested {
		// Explicit requests progress through the direction list by
		// question volume, independent of the streak index, so repeated
		// requests keep advancing even without a negative streak.
		idx := a.TotalQuestions / 5
		if dir, ok := hintDirection(aid, idx); ok {
			hints = append(hints, fmt.Sprintf("玩家请求提示。请用这个方向引导：%s（不要直接透露答案）", dir))
		} else if aid != nil {
			hints = append(hints, "玩家请求提示。给一个具体方向提示，不要直接透露答案。")
		} else {
			hints = append(hints, "玩家请求提示。根据汤底给一个具体方向提示，不要直接透露答案。")
		}
	}

	return hints
}

// hintDirection picks the idx-th entry of the aid's priority-ordered
// hint list, clamped to the last entry.
func hintDirection(aid *puzzle.JudgmentAid, idx int) (string, bool) {
	if aid == nil || len(aid.HintDirections) == 0 || idx < 0 {
		return "", false
	}
	if idx >= len(aid.HintDirections) {
		idx = len(aid.HintDirections) - 1
	}
	return aid.HintDirections[idx].Hint, true
}
