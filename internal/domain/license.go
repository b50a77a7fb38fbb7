package domain

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the DD/MM/YYYY layout used for every user-entered date.
const DateLayout = "02/01/2006"

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// IsLicenseExpired reports whether a DD/MM/YYYY expiry is in today's month or earlier.
// The day of month is ignored. Empty or malformed input is never expired.
func IsLicenseExpired(expiry string, today time.Time) bool {
	if expiry == "" {
		return false
	}
	parts := strings.Split(expiry, "/")
	if len(parts) != 3 {
		return false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return false
	}

	curYear, curMonth := today.Year(), int(today.Month())
	if year < curYear {
		return true
	}
	return year == curYear && month <= curMonth
}

type LicenseState int

const (
	LicenseNoDate LicenseState = iota
	LicenseValid
	LicenseExpired
	LicensePending
)

func (s LicenseState) String() string {
	switch s {
	case LicenseValid:
		return "valid"
	case LicenseExpired:
		return "expired"
	case LicensePending:
		return "pending"
	default:
		return "no_date"
	}
}

func (s Student) IsLicenseExpired(today time.Time) bool {
	return IsLicenseExpired(s.LicExpDate, today)
}

func (s Student) IsLicenseApplicationPending() bool {
	return s.LicenseApplicationStatus == LicenseApplicationPending
}

// LicenseState resolves the display state: pending, then expired, then valid, then no date.
func (s Student) LicenseState(today time.Time) LicenseState {
	switch {
	case s.IsLicenseApplicationPending():
		return LicensePending
	case s.IsLicenseExpired(today):
		return LicenseExpired
	case s.LicExpDate != "":
		return LicenseValid
	default:
		return LicenseNoDate
	}
}

func (s Student) LicenseStatusText(today time.Time) string {
	switch s.LicenseState(today) {
	case LicensePending:
		return "License application pending"
	case LicenseExpired:
		return "License Expired"
	case LicenseValid:
		return "Valid until " + s.LicExpDate
	default:
		return "No expiry date"
	}
}
