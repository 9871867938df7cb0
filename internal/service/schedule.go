package service

import (
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/util"
	"github.com/shopspring/decimal"
)

// InstallmentPlan is one scheduled repayment slot produced by BuildSchedule
type InstallmentPlan struct {
	Number  int32
	Amount  decimal.Decimal
	DueDate time.Time
}

// ScheduleInput contains the loan terms a schedule is generated from
type ScheduleInput struct {
	Principal        decimal.Decimal
	RatePercent      decimal.Decimal
	InstallmentCount int32
	Frequency        domain.LoanFrequency
	StartDate        time.Time
	EndDateOverride  *time.Time
}

// TotalPayable calculates principal plus simple interest, rounded to cents
// Formula: principal + principal * ratePercent / 100
func TotalPayable(principal, ratePercent decimal.Decimal) decimal.Decimal {
	interest := principal.Mul(ratePercent).Div(decimal.NewFromInt(100))
	return principal.Add(interest).Round(2)
}

// BuildSchedule turns loan terms into the full ordered installment plan and
// the loan's end date.
//
// Amounts: each of the first N-1 installments is the rounded even split; the
// last installment absorbs the rounding remainder so the plan always sums to
// the total payable exactly.
//
// Dates: daily schedules advance one day at a time and never land on a
// Sunday; weekly adds 7 days, biweekly 15, monthly a flat 30 (not
// calendar-month arithmetic; existing schedules depend on the flat step).
// One-time loans have a single installment due on the caller-supplied end
// date.
func BuildSchedule(in ScheduleInput) ([]InstallmentPlan, time.Time, error) {
	if in.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, time.Time{}, domain.ErrLoanPrincipalInvalid
	}
	if in.RatePercent.IsNegative() || in.RatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, time.Time{}, domain.ErrLoanRateInvalid
	}
	if !in.Frequency.Valid() {
		return nil, time.Time{}, domain.ErrLoanFrequencyInvalid
	}

	count := in.InstallmentCount
	if in.Frequency == domain.FrequencyOneTime {
		if in.EndDateOverride == nil {
			return nil, time.Time{}, domain.ErrLoanEndDateRequired
		}
		count = 1
	}
	if count < 1 {
		return nil, time.Time{}, domain.ErrLoanInstallmentsInvalid
	}

	total := TotalPayable(in.Principal, in.RatePercent)
	per := total.Div(decimal.NewFromInt32(count)).Round(2)

	plans := make([]InstallmentPlan, count)
	dueDate := util.TruncateToDay(in.StartDate)
	var allocated decimal.Decimal

	for n := int32(1); n <= count; n++ {
		amount := per
		if n == count {
			// Last installment takes whatever is left so the schedule
			// reconciles with the total to the cent.
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		dueDate = nextDueDate(dueDate, in.Frequency, in.EndDateOverride)
		plans[n-1] = InstallmentPlan{Number: n, Amount: amount, DueDate: dueDate}
	}

	endDate := plans[count-1].DueDate
	if in.EndDateOverride != nil {
		endDate = util.TruncateToDay(*in.EndDateOverride)
	}
	return plans, endDate, nil
}

func nextDueDate(prev time.Time, frequency domain.LoanFrequency, endDateOverride *time.Time) time.Time {
	switch frequency {
	case domain.FrequencyDaily:
		return util.NextNonSunday(prev.AddDate(0, 0, 1))
	case domain.FrequencyWeekly:
		return prev.AddDate(0, 0, 7)
	case domain.FrequencyBiweekly:
		return prev.AddDate(0, 0, 15)
	case domain.FrequencyMonthly:
		return prev.AddDate(0, 0, 30)
	case domain.FrequencyOneTime:
		return util.TruncateToDay(*endDateOverride)
	}
	return prev
}
