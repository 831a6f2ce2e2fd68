package httperr

import (
	"errors"
	"fmt"
)

// Falhas de escrita depois de progresso parcial.
const (
	CodeReservationFailed  = "reservation_failed"
	CodeCancellationFailed = "cancellation_failed"

	// A compensação também falhou: precisa de reconciliação manual.
	CodeInconsistentState = "inconsistent_state"
)

type FailureError struct {
	Code string
	Err  error
}

func (e FailureError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e FailureError) Unwrap() error {
	return e.Err
}

func ErrFailure(code string, err error) error {
	return FailureError{Code: code, Err: err}
}

func IsFailure(err error, code string) bool {
	var fe FailureError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
