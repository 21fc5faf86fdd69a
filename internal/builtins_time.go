package internal

import (
	"time"

	"gitlab.com/variadico/lctime"
)

// localeDate renders the current date in the short locale form, backing
// "the date".
func localeDate() string {
	return lctime.Strftime("%x", time.Now())
}

// localeTime renders the current time in the short locale form, backing
// "the time".
func localeTime() string {
	return lctime.Strftime("%X", time.Now())
}

// localeLongTime renders the current time in the long locale form, backing
// "the longTime".
func localeLongTime() string {
	return lctime.Strftime("%r", time.Now())
}
