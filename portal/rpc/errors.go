package rpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/form"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/registry"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/session"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/xcmapi"
)

// toConnectError maps portal errors onto connect codes. Errors that already
// carry a code are returned as they are.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, models.ErrExtensionNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, models.ErrPermissionDenied):
		code = connect.CodePermissionDenied
	case errors.Is(err, models.ErrBusy):
		code = connect.CodeAborted
	case errors.Is(err, models.ErrNoExtensionFound),
		errors.Is(err, models.ErrNoAccountsFound),
		errors.Is(err, models.ErrNoAccountSelected):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, form.ErrIncomplete),
		errors.Is(err, models.ErrMissingCurrency),
		errors.Is(err, form.ErrUnknownOption),
		errors.Is(err, registry.ErrUnknownChain),
		errors.Is(err, session.ErrAccountNotFound),
		errors.Is(err, xcmapi.ErrRejected):
		code = connect.CodeInvalidArgument
	case errors.Is(err, models.ErrSubmission):
		code = connect.CodeUnavailable
	}
	return connect.NewError(code, err)
}
