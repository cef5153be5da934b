package domain

import "strings"

// Stage is a column on the kitchen preparation display.
type Stage string

const (
	StagePreparing Stage = "preparing"
	StageReady     Stage = "ready"
	StageDone      Stage = "done"
)

// ParseStage normalises a display stage name as entered by staff.
func ParseStage(name string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(name))) {
	case StagePreparing:
		return StagePreparing, nil
	case StageReady:
		return StageReady, nil
	case StageDone:
		return StageDone, nil
	default:
		return "", ErrUnknownStage
	}
}

// Status maps a display stage to the order status it represents.
func (s Stage) Status() OrderStatus {
	switch s {
	case StagePreparing:
		return StatusPreparing
	case StageReady:
		return StatusReady
	default:
		return StatusDone
	}
}

// MoveTo returns the status an order ends up in after entering the stage,
// or ErrInvalidTransition when the order cannot be staged.
func (o Order) MoveTo(stage Stage) (OrderStatus, error) {
	if o.Status == StatusDraft || o.IsTerminal() {
		return "", ErrInvalidTransition
	}
	return stage.Status(), nil
}
