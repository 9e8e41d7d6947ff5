package report

import "time"

// Interaction types recorded for each exchange with a model
const (
	TypeInitial = "initial"
	TypeRetry   = "retry"
	TypeHint    = "hint"
)

// Evaluation is the verdict on one model response
type Evaluation struct {
	IsValidFormat bool   `json:"is_valid_format"`
	FormatError   string `json:"format_error,omitempty"`
	IsValidPath   bool   `json:"is_valid_path"`
	PathError     string `json:"path_error,omitempty"`
	TotalMP       int    `json:"total_mp"`
	OptimalMP     *int   `json:"optimal_mp,omitempty"`
	IsOptimal     bool   `json:"is_optimal"`
}

// Interaction is one prompt/response exchange and its evaluation
type Interaction struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	Number      int       `json:"interaction_number"`
	Type        string    `json:"interaction_type"` // initial, retry_N or hint_N
	Prompt      string    `json:"prompt"`
	RawResponse string    `json:"raw_response"`
	ParsedJSON  string    `json:"parsed_json,omitempty"`
	Path        string    `json:"path,omitempty"`
	Analysis    string    `json:"analysis,omitempty"`
	Evaluation

	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	ResponseTime     time.Duration `json:"response_time"`

	// Success means the path was both valid and optimal
	Success bool `json:"success"`
}

// FinalResult summarizes a model's run on one scenario
type FinalResult struct {
	Success   bool `json:"success"`
	IsOptimal bool `json:"is_optimal"`
	TotalMP   *int `json:"total_mp,omitempty"`
}
