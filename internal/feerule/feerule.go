// Package feerule derives fee tiers, adjusted fees and payment completion from a
// student's year-change ledger and payment history. It performs no I/O; callers
// load the rows and pass them in.
package feerule

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/class-fee-api/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Input is everything ComputeProgress needs for one student/class pair.
// Rows belonging to other pairs are ignored.
type Input struct {
	StudentID     string
	ClassID       string
	NominalFee    *decimal.Decimal
	ReferenceDate time.Time
	YearChanges   []models.YearChange
	Payments      []models.Payment
}

// Result is the progress of a student's payments under the tier in force at the reference date.
type Result struct {
	Percent       int64            `json:"percent"`
	SumPayments   decimal.Decimal  `json:"sum_payments"`
	AdjustedFee   decimal.Decimal  `json:"adjusted_fee"`
	Tier          *models.FeeTier  `json:"fee_adjustment"`
	EffectiveFrom *time.Time       `json:"effective_from,omitempty"`
	NominalFee    *decimal.Decimal `json:"nominal_fee"`
}

// Completed reports whether the adjusted fee has been paid in full.
func (r Result) Completed() bool {
	return r.Percent >= 100
}

// ComputeProgress selects the latest year change on or before the reference date,
// applies its tier to the nominal fee and sums the payments made since that change.
func ComputeProgress(in Input) Result {
	ref := DateOf(in.ReferenceDate)
	changes := filterChanges(in.YearChanges, in.StudentID, in.ClassID)

	result := Result{NominalFee: in.NominalFee}
	latest := LatestInForce(changes, ref)

	var since *time.Time
	if latest != nil {
		tier := latest.FeeAdjustment
		result.Tier = &tier
		changedAt := latest.ChangedAt
		since = &changedAt
		result.EffectiveFrom = &changedAt
		result.AdjustedFee = AdjustedFee(in.NominalFee, tier)
	} else {
		result.AdjustedFee = nominal(in.NominalFee)
	}

	sum := decimal.Zero
	for _, p := range in.Payments {
		if p.StudentID != in.StudentID || p.ClassID != in.ClassID {
			continue
		}
		if since != nil && DateOf(p.PaymentDate).Before(*since) {
			continue
		}
		sum = sum.Add(p.Amount)
	}
	result.SumPayments = sum
	result.Percent = Percent(sum, result.AdjustedFee)
	return result
}

// Percent is min(100, round(paid/fee*100)). A zero fee counts as complete once anything was paid.
func Percent(paid, fee decimal.Decimal) int64 {
	if !fee.IsPositive() {
		if paid.IsPositive() {
			return 100
		}
		return 0
	}
	pct := paid.Mul(hundred).Div(fee).Round(0).IntPart()
	if pct > 100 {
		return 100
	}
	return pct
}

// AdjustedFee applies tier's multiplier to the nominal fee. A nil fee is zero.
func AdjustedFee(fee *decimal.Decimal, tier models.FeeTier) decimal.Decimal {
	return nominal(fee).Mul(tier.Multiplier())
}

// TierFromChangeCount assigns a tier from the number of recorded year changes:
// none is Full, the first change is Free, the second Half, any later change Full again.
func TierFromChangeCount(count int) models.FeeTier {
	switch count {
	case 1:
		return models.FeeTierFree
	case 2:
		return models.FeeTierHalf
	default:
		return models.FeeTierFull
	}
}

// TierFromYearDiff previews the tier for moving a student from their original
// exam year to newYear: one year later is Free, two years later Half, otherwise Full.
func TierFromYearDiff(originalYear, newYear int) models.FeeTier {
	switch newYear - originalYear {
	case 1:
		return models.FeeTierFree
	case 2:
		return models.FeeTierHalf
	default:
		return models.FeeTierFull
	}
}

// SortChanges returns the ledger in ascending order by ChangedAt, then Seq, then ID.
// The input slice is not modified.
func SortChanges(changes []models.YearChange) []models.YearChange {
	sorted := make([]models.YearChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.ChangedAt.Equal(b.ChangedAt) {
			return a.ChangedAt.Before(b.ChangedAt)
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ID < b.ID
	})
	return sorted
}

// LatestInForce returns the last entry, in ledger order, whose ChangedAt is not after ref.
func LatestInForce(changes []models.YearChange, ref time.Time) *models.YearChange {
	var latest *models.YearChange
	sorted := SortChanges(changes)
	for i := range sorted {
		if sorted[i].ChangedAt.After(ref) {
			break
		}
		latest = &sorted[i]
	}
	return latest
}

// Latest returns the last entry in ledger order, or nil for an empty ledger.
func Latest(changes []models.YearChange) *models.YearChange {
	if len(changes) == 0 {
		return nil
	}
	sorted := SortChanges(changes)
	return &sorted[len(sorted)-1]
}

// DateOf truncates t to its calendar date at 00:00 UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func filterChanges(changes []models.YearChange, studentID, classID string) []models.YearChange {
	out := make([]models.YearChange, 0, len(changes))
	for _, c := range changes {
		if c.StudentID == studentID && c.ClassID == classID {
			out = append(out, c)
		}
	}
	return out
}

func nominal(fee *decimal.Decimal) decimal.Decimal {
	if fee == nil {
		return decimal.Zero
	}
	return *fee
}
