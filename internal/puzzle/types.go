// Package puzzle holds turtle-soup puzzles: the surface shown to the
// player, the hidden solution, and an optional pre-analyzed judgment
// aid the host grounds its rulings in.
package puzzle

import "time"

// Importance ranks how much a key fact matters to solving.
const (
	ImportanceCritical  = "critical"
	ImportanceImportant = "important"
	ImportanceMinor     = "minor"
)

// Puzzle is one riddle. Description is the surface the player sees;
// Solution stays hidden until reveal or completion.
type Puzzle struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Solution    string       `json:"solution"`
	Difficulty  int          `json:"difficulty"`
	Tags        []string     `json:"tags"`
	Aid         *JudgmentAid `json:"logic_profile,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Public is the player-visible view of a puzzle: no solution, no aid.
type Public struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  int      `json:"difficulty"`
	Tags        []string `json:"tags"`
}

// PublicView strips the hidden fields.
func (p *Puzzle) PublicView() Public {
	return Public{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Difficulty:  p.Difficulty,
		Tags:        p.Tags,
	}
}

// JudgmentAid is a precomputed structured analysis of a puzzle. When
// present, the host judges questions against it instead of inferring
// freely from the raw solution. How it is produced is outside this
// system; it arrives with the puzzle.
type JudgmentAid struct {
	Version        int             `json:"version"`
	CoreTrick      string          `json:"core_trick"`
	CausalChain    string          `json:"causal_chain"`
	KeyFacts       []KeyFact       `json:"key_facts"`
	RedHerrings    []string        `json:"red_herrings"`
	SolveCriteria  string          `json:"solve_criteria"`
	Milestones     []Milestone     `json:"progress_milestones"`
	HintDirections []HintDirection `json:"hint_directions"`
	AnswerGuide    AnswerGuide     `json:"answer_guide"`
}

// KeyFact is one ranked fact of the hidden story.
type KeyFact struct {
	Fact       string `json:"fact"`
	Importance string `json:"importance"`
	Category   string `json:"category"`
}

// Milestone describes what a progress range means for this puzzle.
type Milestone struct {
	Range       string `json:"range"`
	Description string `json:"description"`
}

// HintDirection is one entry of the priority-ordered guidance list,
// from least to most revealing.
type HintDirection struct {
	Priority int    `json:"priority"`
	Hint     string `json:"hint"`
}

// AnswerGuide carries example questions with known rulings.
type AnswerGuide struct {
	CommonYes []string         `json:"common_yes_questions"`
	CommonNo  []string         `json:"common_no_questions"`
	Tricky    []TrickyQuestion `json:"tricky_questions"`
}

// TrickyQuestion is a boundary case that is easy to misjudge.
type TrickyQuestion struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}
