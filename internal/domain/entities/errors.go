package entities

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Input validation errors. They are returned before any chain interaction.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDecimals   = errors.New("invalid decimals")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrInvalidAddress    = errors.New("invalid address")
)

// Collaborator errors.
var (
	ErrChainRead  = errors.New("chain read failed")
	ErrSigning    = errors.New("signing failed")
	ErrSubmission = errors.New("submission failed")

	// ErrApproveSubmissionFailed means no allowance was granted; the whole
	// sell can be retried.
	ErrApproveSubmissionFailed = fmt.Errorf("approve %w", ErrSubmission)
	// ErrSwapSubmissionFailed means the approve went out before the swap
	// failed. The allowance may already be live, so the sell must not be
	// replayed blindly.
	ErrSwapSubmissionFailed = fmt.Errorf("swap %w", ErrSubmission)
)

// Phase names one step of a buy or sell operation.
type Phase string

const (
	PhaseValidate          Phase = "validate"
	PhaseReadBalance       Phase = "read_balance"
	PhaseComputeSellAmount Phase = "compute_sell_amount"
	PhaseBuildApprove      Phase = "build_approve"
	PhaseSignApprove       Phase = "sign_approve"
	PhaseSubmitApprove     Phase = "submit_approve"
	PhaseReadDeadline      Phase = "read_deadline"
	PhaseBuildSwap         Phase = "build_swap"
	PhaseSignSwap          Phase = "sign_swap"
	PhaseSubmitSwap        Phase = "submit_swap"
	PhaseDone              Phase = "done"
)

// PhaseError reports which phase of an operation failed. errors.Is matches
// both the error kind (ErrChainRead, ErrSwapSubmissionFailed, ...) and the
// underlying cause.
type PhaseError struct {
	Op    string
	Phase Phase
	Kind  error
	Err   error

	// ApproveTx is set when an approve was already submitted before the
	// failure, i.e. an allowance may be dangling.
	ApproveTx *common.Hash
}

func (e *PhaseError) Error() string {
	msg := fmt.Sprintf("%s failed at %s: %v", e.Op, e.Phase, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.ApproveTx != nil {
		msg += fmt.Sprintf(" (approve %s already submitted, do not replay the sell)", e.ApproveTx.Hex())
	}
	return msg
}

func (e *PhaseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// DanglingApproval reports whether err left an approve on chain without the
// matching swap.
func DanglingApproval(err error) bool {
	var pe *PhaseError
	return errors.As(err, &pe) && pe.ApproveTx != nil
}
