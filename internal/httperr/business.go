package httperr

import "errors"

// Resultados esperados do motor de reservas. Não são falhas de infra.
const (
	CodeSlotUnavailable  = "slot_unavailable"
	CodePlanNotEligible  = "plan_not_eligible"
	CodeQuotaExceeded    = "quota_exceeded"
	CodeNotFound         = "appointment_not_found"
	CodeProviderNotFound = "provider_not_found"
	CodeInvalidSlotRange = "invalid_slot_range"
	CodeSlotOverlap      = "slot_overlap"
	CodeTooManySlots     = "too_many_slots"
)

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
