package service

import (
	"github.com/shopspring/decimal"

	"parkgate/backend/services/parking-service/internal/models"
)

// Every engine operation returns exactly one variant from a closed set, so
// callers branch exhaustively with a type switch instead of probing errors.

// StartSessionResult is the outcome of the start saga.
type StartSessionResult interface{ isStartSessionResult() }

// StartSuccess carries the created session and the lot's remaining spots.
type StartSuccess struct {
	Session        *models.ParkingSession
	AvailableSpots int
}

// StartLotNotFound means the target lot does not exist.
type StartLotNotFound struct{}

// StartLotFull means the lot has no available spots.
type StartLotFull struct{}

// StartAlreadyActive means the plate already has a running session.
type StartAlreadyActive struct{}

// StartPreAuthFailed means the card pre-authorization was declined.
type StartPreAuthFailed struct{ Reason string }

// StartError is an internal failure; compensations have already run.
type StartError struct{ Message string }

func (StartSuccess) isStartSessionResult()       {}
func (StartLotNotFound) isStartSessionResult()   {}
func (StartLotFull) isStartSessionResult()       {}
func (StartAlreadyActive) isStartSessionResult() {}
func (StartPreAuthFailed) isStartSessionResult() {}
func (StartError) isStartSessionResult()         {}

// StopSessionResult is the outcome of the stop saga.
type StopSessionResult interface{ isStopSessionResult() }

// StopSuccess carries the finalized session and the captured amount.
type StopSuccess struct {
	Session *models.ParkingSession
	Amount  decimal.Decimal
}

// StopPlateNotFound means no active session exists for the plate.
type StopPlateNotFound struct{}

// StopAlreadyStopped means the session was finalized earlier.
type StopAlreadyStopped struct{}

// StopPaymentFailed means the capture was declined.
type StopPaymentFailed struct{ Reason string }

// StopError is an internal failure; note that when the message names a gate
// error the payment has already been captured.
type StopError struct{ Message string }

func (StopSuccess) isStopSessionResult()        {}
func (StopPlateNotFound) isStopSessionResult()  {}
func (StopAlreadyStopped) isStopSessionResult() {}
func (StopPaymentFailed) isStopSessionResult()  {}
func (StopError) isStopSessionResult()          {}

// CreateSessionResult is the outcome of a direct create.
type CreateSessionResult interface{ isCreateSessionResult() }

// CreateSuccess carries the stored session.
type CreateSuccess struct{ Session *models.ParkingSession }

// CreateAlreadyExists means the plate already has a running session.
type CreateAlreadyExists struct{}

// CreateError is an internal failure.
type CreateError struct{ Message string }

func (CreateSuccess) isCreateSessionResult()       {}
func (CreateAlreadyExists) isCreateSessionResult() {}
func (CreateError) isCreateSessionResult()         {}

// GetSessionResult is the outcome of a single-session lookup.
type GetSessionResult interface{ isGetSessionResult() }

// GetSuccess carries the session.
type GetSuccess struct{ Session *models.ParkingSession }

// GetNotFound means no such session (or not in the requested lot).
type GetNotFound struct{}

// GetForbidden means the caller does not own the session.
type GetForbidden struct{}

// GetError is an internal failure.
type GetError struct{ Message string }

func (GetSuccess) isGetSessionResult()   {}
func (GetNotFound) isGetSessionResult()  {}
func (GetForbidden) isGetSessionResult() {}
func (GetError) isGetSessionResult()     {}

// SessionListResult is the outcome of a list query. An empty underlying
// collection is reported as ListNotFound, never as an empty ListSuccess.
type SessionListResult interface{ isSessionListResult() }

// ListSuccess carries a non-empty result set.
type ListSuccess struct{ Sessions []models.ParkingSession }

// ListNotFound means the query matched nothing.
type ListNotFound struct{}

// ListInvalidInput means the filter argument could not be interpreted; the
// store was not queried.
type ListInvalidInput struct{ Reason string }

// ListError is an internal failure.
type ListError struct{ Message string }

func (ListSuccess) isSessionListResult()      {}
func (ListNotFound) isSessionListResult()     {}
func (ListInvalidInput) isSessionListResult() {}
func (ListError) isSessionListResult()        {}

// UpdateSessionResult is the outcome of a generic session mutation.
type UpdateSessionResult interface{ isUpdateSessionResult() }

// UpdateSuccess carries the mutated session.
type UpdateSuccess struct{ Session *models.ParkingSession }

// UpdateNotFound means the target session does not exist.
type UpdateNotFound struct{}

// UpdateNoChanges means the request matched the stored state; nothing was written.
type UpdateNoChanges struct{}

// UpdateError is a validation or internal failure.
type UpdateError struct{ Message string }

func (UpdateSuccess) isUpdateSessionResult()   {}
func (UpdateNotFound) isUpdateSessionResult()  {}
func (UpdateNoChanges) isUpdateSessionResult() {}
func (UpdateError) isUpdateSessionResult()     {}

// DeleteSessionResult is the outcome of a session delete.
type DeleteSessionResult interface{ isDeleteSessionResult() }

// DeleteSuccess means the row is gone.
type DeleteSuccess struct{}

// DeleteNotFound means the target session does not exist.
type DeleteNotFound struct{}

// DeleteError is an internal failure.
type DeleteError struct{ Message string }

func (DeleteSuccess) isDeleteSessionResult()  {}
func (DeleteNotFound) isDeleteSessionResult() {}
func (DeleteError) isDeleteSessionResult()    {}
