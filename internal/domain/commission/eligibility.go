package commission

import "github.com/shopspring/decimal"

type Outcome struct {
	Status string          `json:"status"`
	Bonus  decimal.Decimal `json:"bonus"`
}

// MeetsBaseline never holds for a zero baseline.
func MeetsBaseline(volume, baseline int) bool {
	return baseline > 0 && volume >= baseline
}

// EvaluateOpen is the provisional outcome shown while a period is open.
// Nothing computed here is persisted.
func EvaluateOpen(score Score, baseline int) Outcome {
	if !MeetsBaseline(score.Volume, baseline) {
		return Outcome{Status: StatusRejected, Bonus: decimal.Zero}
	}
	return Outcome{Status: StatusPending, Bonus: BonusFor(score.Percentage)}
}

// EvaluateClose is the outcome frozen onto a tally when its period closes.
func EvaluateClose(score Score, baseline int) Outcome {
	if MeetsBaseline(score.Volume, baseline) && score.Percentage >= ApprovalPercentage {
		return Outcome{Status: StatusApproved, Bonus: BonusFor(score.Percentage)}
	}
	return Outcome{Status: StatusRejected, Bonus: decimal.Zero}
}

// Evaluate returns the effective outcome of a tally. A closed period reports
// the persisted values verbatim.
func Evaluate(tally Tally, baseline int, closed bool) Outcome {
	if closed {
		return Outcome{Status: tally.Status, Bonus: tally.Bonus}
	}
	return EvaluateOpen(Aggregate(tally.Counts), baseline)
}
