package model

import (
	"errors"
	"fmt"
)

// Approval status values shared by Agency, Customer and DeliveryStaff.
// The lifecycle is one-shot: Pending moves to Approved or Denied exactly
// once and terminal states never transition again.
const (
	ApprovalPending  = "Pending"
	ApprovalApproved = "Approved"
	ApprovalDenied   = "Denied"
)

// MaxDenialComments bounds the free-text comments recorded with a denial.
const MaxDenialComments = 500

// AlreadyDecidedError is returned when an approve/deny is attempted on an
// entity whose status is already terminal.  The caller must make no
// mutation when this error is returned.
type AlreadyDecidedError struct {
	Status string
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("already %s", e.Status)
}

var errInvalidStatus = errors.New("invalid approval status")

// CanDecide checks whether an approval decision may be applied to an entity
// currently in the given status.  Only Pending entities may be decided.
func CanDecide(current string) error {
	switch current {
	case ApprovalPending:
		return nil
	case ApprovalApproved, ApprovalDenied:
		return &AlreadyDecidedError{Status: current}
	default:
		return errInvalidStatus
	}
}

// ValidateDenialComments rejects over-long comments before any mutation.
func ValidateDenialComments(comments string) error {
	if len(comments) > MaxDenialComments {
		return fmt.Errorf("comments exceed %d characters", MaxDenialComments)
	}
	return nil
}
