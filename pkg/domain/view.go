package domain

// StepView is a step rendered for the respondent.
//
// StepID is the node used for navigation (the replay node for replays) and is
// what the caller echoes back when answering. AnswerStepID is the node under
// which the answer will be recorded; it differs from StepID only for replays.
type StepView struct {
	StepID       string   `json:"stepId"`
	AnswerStepID string   `json:"answerStepId"`
	Type         StepType `json:"type"`
	Messages     []string `json:"messages"`
	Media        []Media  `json:"media,omitempty"`
	Links        []Link   `json:"links,omitempty"`
	Input        Input    `json:"input"`
}

// IsReplay reports whether the view re-asks another step.
func (v *StepView) IsReplay() bool {
	return v.StepID != v.AnswerStepID
}
