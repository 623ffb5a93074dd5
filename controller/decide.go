package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/hitl/core/protocol"
	"github.com/tailored-agentic-units/hitl/observability"
)

const (
	keywordApprove = "approve"
	keywordReject  = "reject"
	keywordEdit    = "edit"
)

// Decide asks for one decision per pending action, in order. The first
// invalid answer aborts the whole signal; no partial directive is returned.
func (c *Controller) Decide(ctx context.Context, signal protocol.InterruptSignal) (protocol.ResumeDirective, error) {
	decisions := make([]protocol.Decision, 0, len(signal.Actions))

	for i, action := range signal.Actions {
		decision, err := c.decideAction(ctx, i, len(signal.Actions), action)
		if err != nil {
			return protocol.ResumeDirective{}, err
		}

		c.observer.OnEvent(ctx, observability.NewEvent(EventDecision, observability.LevelInfo, "controller.Decide",
			map[string]any{
				"interrupt_id": signal.ID,
				"action":       action.Name,
				"index":        i,
				"decision":     string(decision.Type),
			}))

		decisions = append(decisions, decision)
	}

	return protocol.ResumeDirective{Decisions: decisions}, nil
}

func (c *Controller) decideAction(ctx context.Context, index, total int, action protocol.PendingAction) (protocol.Decision, error) {
	prompt := "\nApprove this action? (approve/reject/edit): "
	if total > 1 {
		prompt = fmt.Sprintf("\nApprove action %d of %d (%s)? (approve/reject/edit): ", index+1, total, action.Name)
	}

	answer, err := c.prompter.Prompt(ctx, prompt)
	if err != nil {
		return protocol.Decision{}, fmt.Errorf("%w: decision: %w", ErrReadInput, err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case keywordApprove:
		fmt.Fprint(c.out, "\n✅ Approving action...\n\n")
		return protocol.Approve(), nil

	case keywordReject:
		fmt.Fprint(c.out, "\n❌ Rejecting action...\n\n")
		reason, err := c.prompter.Prompt(ctx, "Reason for rejection: ")
		if err != nil {
			return protocol.Decision{}, fmt.Errorf("%w: rejection reason: %w", ErrReadInput, err)
		}
		return protocol.Reject(strings.TrimSpace(reason)), nil

	case keywordEdit:
		return c.edit(ctx, action)

	default:
		return protocol.Decision{}, fmt.Errorf("%w: %q (expected approve, reject, or edit)", ErrInvalidDecisionInput, answer)
	}
}

func (c *Controller) edit(ctx context.Context, action protocol.PendingAction) (protocol.Decision, error) {
	fmt.Fprint(c.out, "\n✏️ Editing action...\n")

	value, err := c.prompter.Prompt(ctx, fmt.Sprintf("Enter new %s (or press Enter to keep original):\n", c.editField))
	if err != nil {
		return protocol.Decision{}, fmt.Errorf("%w: edited value: %w", ErrReadInput, err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		fmt.Fprint(c.out, "No changes made, approving original...\n\n")
		return protocol.Approve(), nil
	}

	return EditAction(action, c.editField, value)
}

// EditAction builds an Edit decision whose action is a deep copy of action
// with field set to value. The original action is left untouched.
func EditAction(action protocol.PendingAction, field, value string) (protocol.Decision, error) {
	if action.Arguments == nil {
		return protocol.Decision{}, fmt.Errorf("%w: action %s has no arguments", ErrUnsupportedEditTarget, action.Name)
	}
	if _, ok := action.Arguments[field]; !ok {
		return protocol.Decision{}, fmt.Errorf("%w: action %s has no %q argument", ErrUnsupportedEditTarget, action.Name, field)
	}

	revised := action.Clone()
	revised.Arguments[field] = value
	return protocol.Edit(revised), nil
}

func (c *Controller) render(signal protocol.InterruptSignal) {
	fmt.Fprint(c.out, "\n\n🛑 INTERRUPTION DETECTED:\n")

	id := signal.ID
	if id == "" {
		id = "N/A"
	}
	fmt.Fprintf(c.out, "Interrupt ID: %s\n", id)

	for _, action := range signal.Actions {
		description := action.Description
		if description == "" {
			description = "No description"
		}
		name := action.Name
		if name == "" {
			name = "Unknown"
		}

		fmt.Fprintf(c.out, "\n%s\n", description)
		fmt.Fprintf(c.out, "Tool: %s\n", name)
		fmt.Fprintf(c.out, "Args: %s\n", formatArguments(action.Arguments))
	}
}

func formatArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}
