package protocol

import (
	"encoding/json"
	"fmt"
)

// DecisionType tags the variant held by a Decision.
type DecisionType string

const (
	DecisionApprove DecisionType = "approve"
	DecisionReject  DecisionType = "reject"
	DecisionEdit    DecisionType = "edit"
)

// Decision is the human answer to one PendingAction.
//
// Only the fields of the active variant are set: Feedback for reject,
// EditedAction for edit. Construct values with Approve, Reject, and Edit.
type Decision struct {
	Type         DecisionType
	Feedback     string
	EditedAction *PendingAction
}

// RejectedPrefix starts every tool result recorded for a rejected call.
const RejectedPrefix = "The user rejected the "

// RejectionNote is the tool result recorded for a rejected call to tool.
func RejectionNote(tool, feedback string) string {
	if feedback == "" {
		return RejectedPrefix + tool + " call."
	}
	return RejectedPrefix + tool + " call: " + feedback
}

// Approve lets the pending action run unchanged.
func Approve() Decision {
	return Decision{Type: DecisionApprove}
}

// Reject refuses the pending action. The feedback is passed back to the model.
func Reject(feedback string) Decision {
	return Decision{Type: DecisionReject, Feedback: feedback}
}

// Edit runs a revised copy of the pending action instead of the original.
func Edit(revised PendingAction) Decision {
	return Decision{Type: DecisionEdit, EditedAction: &revised}
}

// Validate reports ErrInvalidDecision for an unknown type or an edit
// without an edited action.
func (d Decision) Validate() error {
	switch d.Type {
	case DecisionApprove, DecisionReject:
		return nil
	case DecisionEdit:
		if d.EditedAction == nil {
			return fmt.Errorf("%w: edit decision without edited action", ErrInvalidDecision)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDecision, d.Type)
	}
}

// MarshalJSON emits only the fields of the active variant:
//
//	{"type": "approve"}
//	{"type": "reject", "feedback": "..."}
//	{"type": "edit", "edited_action": {...}}
func (d Decision) MarshalJSON() ([]byte, error) {
	switch d.Type {
	case DecisionApprove:
		return json.Marshal(struct {
			Type DecisionType `json:"type"`
		}{d.Type})
	case DecisionReject:
		return json.Marshal(struct {
			Type     DecisionType `json:"type"`
			Feedback string       `json:"feedback"`
		}{d.Type, d.Feedback})
	default:
		if err := d.Validate(); err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Type         DecisionType  `json:"type"`
			EditedAction PendingAction `json:"edited_action"`
		}{d.Type, *d.EditedAction})
	}
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type         DecisionType   `json:"type"`
		Feedback     string         `json:"feedback"`
		EditedAction *PendingAction `json:"edited_action"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case DecisionApprove:
		*d = Approve()
	case DecisionReject:
		*d = Reject(raw.Feedback)
	case DecisionEdit:
		if raw.EditedAction == nil {
			return fmt.Errorf("%w: edit decision without edited action", ErrInvalidDecision)
		}
		*d = Edit(*raw.EditedAction)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDecision, raw.Type)
	}
	return nil
}

// ResumeDirective answers one InterruptSignal. It holds one Decision per
// PendingAction, in the same order.
type ResumeDirective struct {
	Decisions []Decision `json:"decisions"`
}

// Validate checks that the directive answers every action of signal with a
// well-formed decision.
func (r ResumeDirective) Validate(signal InterruptSignal) error {
	if len(r.Decisions) != len(signal.Actions) {
		return fmt.Errorf("%w: got %d decisions for %d actions",
			ErrDecisionCount, len(r.Decisions), len(signal.Actions))
	}
	for i, d := range r.Decisions {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("decision %d: %w", i, err)
		}
	}
	return nil
}
