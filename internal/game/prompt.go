package game

import (
	"fmt"
	"strings"

	"github.com/openclue/soupmaster/internal/llm"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// BuildSystemPrompt assembles the instruction turn for the host. With a
// judgment aid present the host is told to ground every ruling in the
// aid; without one it judges against the raw solution directly. Hint
// guidance, when any, lands in a host-only block the player must never
// see quoted back.
func BuildSystemPrompt(p *puzzle.Puzzle, hints []string) string {
	if p.Aid != nil {
		return buildAidPrompt(p, hints)
	}
	return buildFallbackPrompt(p, hints)
}

func buildAidPrompt(p *puzzle.Puzzle, hints []string) string {
	aid := p.Aid

	var keyFacts strings.Builder
	for _, f := range aid.KeyFacts {
		fmt.Fprintf(&keyFacts, "- [%s][%s] %s\n", f.Importance, f.Category, f.Fact)
	}

	var milestones strings.Builder
	for _, m := range aid.Milestones {
		fmt.Fprintf(&milestones, "- %s%%: %s\n", m.Range, m.Description)
	}

	var redHerrings strings.Builder
	for _, r := range aid.RedHerrings {
		fmt.Fprintf(&redHerrings, "- %s\n", r)
	}

	var yesQs, noQs, trickyQs strings.Builder
	for _, q := range aid.AnswerGuide.CommonYes {
		fmt.Fprintf(&yesQs, "- %q → 是\n", q)
	}
	for _, q := range aid.AnswerGuide.CommonNo {
		fmt.Fprintf(&noQs, "- %q → 不是\n", q)
	}
	for _, q := range aid.AnswerGuide.Tricky {
		fmt.Fprintf(&trickyQs, "- %q → %s（%s）\n", q.Question, q.Answer, q.Reasoning)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `你是海龟汤主持人。以下是预分析的谜题逻辑档案，请严格依据它来判断玩家的提问。

## 汤面
%s

## 逻辑档案

### 核心诡计
%s

### 因果链
%s

### 关键事实
%s
### 破案标准
%s

### 进度里程碑
%s
### 常见误区（玩家可能误入的方向）
%s
### 判断参考
典型"是"的问题：
%s
典型"不是"的问题：
%s
易错边界问题：
%s
## 回答规则
根据逻辑档案判断玩家的问题，用以下方式回答：
- "是" — 猜测与关键事实吻合
- "不是" — 猜测与关键事实不符
- "部分正确" — 部分吻合，简要说明哪部分对
- "无关" — 问题与谜题核心无关（档案中未涉及的信息回答"无关"而非"不是"）
- "接近答案" — 非常接近真相，鼓励继续
- "恭喜破案！" — 玩家满足了破案标准

判断关键：先在关键事实和判断参考中找到对应项，再决定回答。回答要简洁。

## 破案判断标准（最重要！）
参照上方"破案标准"，判断玩家是否已经理解了故事的**核心逻辑**：
1. 综合回顾整个对话中玩家累积获得的所有信息
2. 对照破案标准，判断核心因果链是否已被理解
3. 只要玩家抓住了核心诡计和关键转折，即使表述不完全一样，也应判定为破案
4. 不需要玩家说出每一个细节，只要核心逻辑链条完整即可

## 标记规则（必须附在回复末尾，玩家看不到）

### 进度标记 [PROGRESS:XX%%]
每次回复末尾必须附带。严格参照"进度里程碑"评估玩家当前的理解程度：
%s评估时要综合考虑玩家在整个对话中累积获得的所有信息，不仅仅看当前这一条问题。

### 线索标记 [CLUE:简短描述]
当本轮问答**推进了玩家对真相的理解**时附带此标记。收录标准：
1. **"是"的回答**：玩家确认了一个关键事实 → 记录确认了什么
2. **"不是"的回答**：玩家排除了一个重要的错误方向 → 记录"排除：xxx"
3. **"部分正确"**：记录正确的部分
4. **"无关"的回答**：通常不标记，除非是常见误区中的方向
不要标记无意义的试探性问题。只标记对破案推理有实质帮助的信息。`,
		p.Description, aid.CoreTrick, aid.CausalChain, keyFacts.String(),
		aid.SolveCriteria, milestones.String(), redHerrings.String(),
		yesQs.String(), noQs.String(), trickyQs.String(), milestones.String())

	appendHintBlock(&b, hints)
	return b.String()
}

// buildFallbackPrompt judges against the raw solution when no aid
// exists. Kept for puzzles imported without pre-analysis.
func buildFallbackPrompt(p *puzzle.Puzzle, hints []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `你是海龟汤主持人。玩家根据汤面提问，你根据汤底判断并回答。

## 汤面
%s

## 汤底（绝密！不能告诉玩家！）
%s

## 回答规则
仔细对照汤底内容判断玩家的问题，用以下方式回答：
- "是" — 猜测与汤底吻合
- "不是" — 猜测与汤底不符
- "部分正确" — 部分吻合，简要说明哪部分对
- "无关" — 问题与汤底完全无关
- "接近答案" — 非常接近真相，鼓励继续
- "恭喜破案！" — 玩家已理解故事的核心逻辑（见下方破案标准）

判断关键：先找到汤底中与问题对应的部分，再判断是否吻合。如果汤底没有提及该信息，回答"无关"而非"不是"。回答要简洁。

## 破案判断标准（最重要！）
判断玩家是否破案时，不要逐字逐句匹配，而要看玩家是否理解了故事的**核心逻辑**：
1. 综合回顾玩家在整个对话过程中获得的所有信息（包括"是"和"不是"的回答）
2. 判断玩家是否已经理解了：**谁做了什么、为什么这么做、导致了什么结果**
3. 只要玩家抓住了故事的关键转折点和核心因果关系，即使表述不完全一样，也应该判定为破案
4. 不需要玩家说出每一个细节，只要核心逻辑链条完整即可

## 标记规则（必须附在回复末尾，玩家看不到）

### 进度标记 [PROGRESS:XX%%]
每次回复末尾必须附带。进度表示玩家对**故事核心逻辑**的理解程度，不是对具体措辞的匹配度：
- 0-20%%：玩家还在摸索方向
- 20-50%%：玩家已确认部分关键要素（如人物关系、事件背景等）
- 50-75%%：玩家已理解大部分核心要素，但关键转折或因果关系尚未明确
- 75-90%%：玩家已非常接近真相，只差最后的关键拼图
- 90-100%%：玩家已基本理解整个故事的核心逻辑
评估时要综合考虑玩家在整个对话中累积获得的所有信息，不仅仅看当前这一条问题。

### 线索标记 [CLUE:简短描述]
当本轮问答**推进了玩家对真相的理解**时附带此标记。收录标准：
1. **"是"的回答**：玩家确认了一个与汤底相关的事实 → 记录确认了什么
2. **"不是"的回答**：玩家排除了一个重要的错误方向 → 记录"排除：xxx"（例如"排除：不是谋杀而是意外"）
3. **"部分正确"**：记录正确的部分是什么
4. **"无关"的回答**：通常不需要标记，除非这个方向是大多数人会误解的
不要标记无意义的试探性问题。只标记对破案推理有实质帮助的信息。`,
		p.Description, p.Solution)

	appendHintBlock(&b, hints)
	return b.String()
}

// appendHintBlock writes the host-only guidance block. The heading
// marks it invisible to the player; the host must act on it without
// quoting it.
func appendHintBlock(b *strings.Builder, hints []string) {
	if len(hints) == 0 {
		return
	}
	b.WriteString("\n\n## 主持人提示（仅为你可见）\n")
	for _, hint := range hints {
		fmt.Fprintf(b, "- %s\n", hint)
	}
}

// BuildTurns assembles the full turn list for the generation call:
// the instruction turn, the recent history, then the new question.
// History is bounded to maxTurns exchanges (two messages each); roles
// other than assistant are forwarded as user turns.
func BuildTurns(systemPrompt string, history []Message, question string, maxTurns int) []llm.Message {
	turns := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}

	recent := history
	if maxTurns > 0 && len(recent) > maxTurns*2 {
		recent = recent[len(recent)-maxTurns*2:]
	}
	for _, msg := range recent {
		role := llm.RoleUser
		if msg.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Message{Role: role, Content: msg.Content})
	}

	return append(turns, llm.Message{Role: llm.RoleUser, Content: question})
}
