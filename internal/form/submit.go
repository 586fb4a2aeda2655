package form

import (
	"context"

	"github.com/jwalitptl/patientor/internal/model"
)

// SubmitFunc receives the shaped entry of a valid form.
type SubmitFunc func(ctx context.Context, entry model.Entry) error

// Submit validates v against the loaded diagnoses and, only when there are no
// validation errors, hands the shaped entry to onSubmit. The returned Errors
// are non-empty exactly when onSubmit was not called; the error is whatever
// onSubmit returned.
func Submit(ctx context.Context, v Values, diagnoses map[string]model.Diagnosis, onSubmit SubmitFunc) (Errors, error) {
	errs := ValidateAgainst(v, diagnoses)
	if !errs.Empty() {
		return errs, nil
	}

	entry, err := Shape(v)
	if err != nil {
		return Errors{"type": MsgUnknownEntryType}, nil
	}
	return errs, onSubmit(ctx, entry)
}

// Cancel invokes the cancel handler. No values are passed on.
func Cancel(onCancel func()) {
	if onCancel != nil {
		onCancel()
	}
}
