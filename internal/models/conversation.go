package models

// Conversation phases, in progression order.
const (
	PhaseInitial      = "INITIAL"
	PhaseExploration  = "EXPLORATION"
	PhaseInsight      = "INSIGHT"
	PhaseToolLearning = "TOOL_LEARNING"
	PhasePractice     = "PRACTICE"
	PhaseFollowUp     = "FOLLOW_UP"
)

// ConversationState is ephemeral dialogue metadata, recomputed per request
// from the recent message window. It is never persisted.
type ConversationState struct {
	Phase           string   `json:"phase"`
	RecurringThemes []string `json:"recurring_themes"`

	NeedsReframing        bool `json:"needs_reframing"`
	NeedsStabilization    bool `json:"needs_stabilization"`
	NeedsResourceBuilding bool `json:"needs_resource_building"`

	ProgressLabel string `json:"progress_label"`
}

// DefaultConversationState is returned for users with fewer than three
// messages of history and whenever state derivation fails.
func DefaultConversationState() ConversationState {
	return ConversationState{
		Phase:                 PhaseInitial,
		RecurringThemes:       []string{},
		NeedsResourceBuilding: true,
		ProgressLabel:         "exploring",
	}
}
