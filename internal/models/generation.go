package models

// Runtime identifies a generation backend.
type Runtime string

const (
	RuntimeGemini Runtime = "gemini" // hosted API
	RuntimeClaude Runtime = "claude" // hosted API
	RuntimeOllama Runtime = "ollama" // local runtime
)

// GenerationMode controls the orchestration strategy.
type GenerationMode string

const (
	ModeStandard GenerationMode = "standard"
	ModeDeepDive GenerationMode = "deep-dive"
	// ModeQuiz appears only in metrics; it is not a valid request mode.
	ModeQuiz GenerationMode = "quiz"
)

// KnowledgeSource controls which knowledge sources the pipeline consults.
type KnowledgeSource string

const (
	KnowledgeAIOnly  KnowledgeSource = "ai-only"
	KnowledgeWebOnly KnowledgeSource = "web-only"
	KnowledgeAIWeb   KnowledgeSource = "ai-web"
)

// GenerationRequest is the immutable input to a generation job.
type GenerationRequest struct {
	Topic           string          `json:"topic" validate:"required,min=2,max=300"`
	Count           int             `json:"count" validate:"required,min=1,max=50"`
	Mode            GenerationMode  `json:"mode" validate:"omitempty,oneof=standard deep-dive"`
	KnowledgeSource KnowledgeSource `json:"knowledge_source" validate:"omitempty,oneof=ai-only web-only ai-web"`
	Runtime         Runtime         `json:"runtime" validate:"omitempty"`
	ParentTopic     string          `json:"parent_topic,omitempty" validate:"omitempty,max=300"`
}

// Normalize fills defaulted fields in place.
func (r *GenerationRequest) Normalize() {
	if r.Mode == "" {
		r.Mode = ModeStandard
	}
	if r.KnowledgeSource == "" {
		r.KnowledgeSource = KnowledgeAIWeb
	}
}

// GenerationResult is the output of a generation job. RecommendedTopics is
// populated only in deep-dive mode and lists sub-topics not yet processed.
type GenerationResult struct {
	Cards             []Flashcard `json:"cards"`
	RecommendedTopics []string    `json:"recommended_topics,omitempty"`
}

// QuizRequest is the input to quiz generation.
type QuizRequest struct {
	Topic            string      `json:"topic,omitempty" validate:"omitempty,max=300"`
	Cards            []Flashcard `json:"cards,omitempty"`
	Count            int         `json:"count" validate:"required,min=1,max=50"`
	PreferredRuntime Runtime     `json:"preferred_runtime,omitempty"`
}
