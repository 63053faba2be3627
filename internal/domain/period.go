package domain

import "time"

// BillingPeriod identifies the monthly invoice a charge belongs to, together
// with the closing and due dates of that statement cycle.
type BillingPeriod struct {
	Year        int
	Month       time.Month
	ClosingDate time.Time
	DueDate     time.Time
}

// ResolvePeriod maps a charge date to its billing period for an instrument
// with the given closing and due days.
//
// A charge after the closing day belongs to the next calendar month's period.
// The closing date is the period's month at closingDay; the due date is the
// period's month at dueDay, shifted one month forward when dueDay < closingDay
// (the statement cycle crosses a month boundary). Days that exceed the month
// length are clamped to the last day of the month.
func ResolvePeriod(date time.Time, closingDay, dueDay int) (BillingPeriod, error) {
	if closingDay < 1 || closingDay > 31 || dueDay < 1 || dueDay > 31 {
		return BillingPeriod{}, ErrInvalidConfiguration
	}

	year, month := date.Year(), date.Month()
	if date.Day() > closingDay {
		year, month = nextMonth(year, month)
	}

	return PeriodForMonth(year, month, closingDay, dueDay)
}

// PeriodForMonth builds the billing period for an explicit (year, month) pair,
// applying the same clamping and month-crossing rules as ResolvePeriod.
func PeriodForMonth(year int, month time.Month, closingDay, dueDay int) (BillingPeriod, error) {
	if closingDay < 1 || closingDay > 31 || dueDay < 1 || dueDay > 31 {
		return BillingPeriod{}, ErrInvalidConfiguration
	}

	dueYear, dueMonth := year, month
	if dueDay < closingDay {
		dueYear, dueMonth = nextMonth(year, month)
	}

	return BillingPeriod{
		Year:        year,
		Month:       month,
		ClosingDate: DateInMonth(year, month, closingDay, time.UTC),
		DueDate:     DateInMonth(dueYear, dueMonth, dueDay, time.UTC),
	}, nil
}

// DateInMonth returns the given day in year/month, clamped to the last valid
// day of that month (day 31 in February becomes February 28 or 29).
func DateInMonth(year int, month time.Month, day int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// AddMonths shifts a date by n calendar months, preserving the day of month
// where possible and clamping at month end for shorter months. This differs
// from time.Time.AddDate, which normalizes Jan 31 + 1 month to March 2/3.
func AddMonths(t time.Time, n int) time.Time {
	year, month := t.Year(), t.Month()

	total := year*12 + int(month) - 1 + n
	year, month = total/12, time.Month(total%12+1)

	return DateInMonth(year, month, t.Day(), t.Location())
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}

	return year, month + 1
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
