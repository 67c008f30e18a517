package bill

import "slices"

// AntiChrono compares two date strings most recent first.
// Dates that don't parse sort after every date that does.
func AntiChrono(a, b string) int {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return tb.Compare(ta)
}

// SortAntiChrono orders bills by date, most recent first. Equal dates keep their input order.
func SortAntiChrono(bills []Bill) {
	slices.SortStableFunc(bills, func(a, b Bill) int {
		return AntiChrono(a.Date, b.Date)
	})
}
