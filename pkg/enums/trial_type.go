package enums

import "slices"

// TrialType records whether a trial requires a payment method up front.
type TrialType string

const (
	TrialTypeFree TrialType = "FREE"
	TrialTypePaid TrialType = "PAID"
)

var trialTypes = []TrialType{TrialTypeFree, TrialTypePaid}

func (t TrialType) String() string { return string(t) }

func (t TrialType) IsValid() bool { return slices.Contains(trialTypes, t) }

// TrialTypeFor picks PAID when the trial collects a payment method.
func TrialTypeFor(requirePayment bool) TrialType {
	if requirePayment {
		return TrialTypePaid
	}
	return TrialTypeFree
}
