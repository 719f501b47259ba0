package contactsync

import (
	"ringroster/internal/platform/logger"
)

// Outcome reports a completed bulk mutation such as a contact upload
type Outcome struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// Decision is what a MutationHandler did with an Outcome
type Decision int

const (
	// DecisionReset means the view was stale and a new generation was started
	DecisionReset Decision = iota
	// DecisionKeep means nothing changed server side and the list was left alone
	DecisionKeep
	// DecisionEmpty means the outcome reported no rows at all
	DecisionEmpty
	// DecisionMalformed means the outcome carried negative counts
	DecisionMalformed
)

func (d Decision) String() string {
	switch d {
	case DecisionReset:
		return "reset"
	case DecisionKeep:
		return "keep"
	case DecisionEmpty:
		return "empty"
	case DecisionMalformed:
		return "malformed"
	}
	return "unknown"
}

// Resetter restarts a view under its current signature, *Accumulator implements it
type Resetter interface {
	Refresh() uint64
}

// MutationHandler resets the view after any bulk mutation that changed at least one record
type MutationHandler struct {
	target Resetter
	log    *logger.Logger
}

// NewMutationHandler builds a handler for target; log may be nil
func NewMutationHandler(target Resetter, log *logger.Logger) *MutationHandler {
	if target == nil {
		panic("contactsync: nil Resetter")
	}
	if log == nil {
		log = logger.Named("contactsync.mutation")
	}
	return &MutationHandler{target: target, log: log}
}

// OnBulkMutationResult applies the reset policy to o
// a partial success still resets since the server list changed in a way a client cannot patch
func (h *MutationHandler) OnBulkMutationResult(o Outcome) Decision {
	switch {
	case o.SuccessCount < 0 || o.FailureCount < 0:
		h.log.Warn().Int("success", o.SuccessCount).Int("failure", o.FailureCount).Msg("malformed mutation outcome ignored")
		return DecisionMalformed
	case o.SuccessCount == 0 && o.FailureCount == 0:
		h.log.Warn().Msg("empty mutation outcome ignored")
		return DecisionEmpty
	case o.SuccessCount == 0:
		h.log.Debug().Int("failure", o.FailureCount).Msg("mutation changed nothing, keeping list")
		return DecisionKeep
	}
	gen := h.target.Refresh()
	h.log.Info().Int("success", o.SuccessCount).Int("failure", o.FailureCount).Uint64("generation", gen).Msg("mutation applied, list reset")
	return DecisionReset
}
