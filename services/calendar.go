package services

import (
	"sort"
	"time"
)

type CalendarDay struct {
	Date     string `json:"date"`
	Day      int    `json:"day"`
	Value    int    `json:"value"`
	IsToday  bool   `json:"is_today"`
	IsFuture bool   `json:"is_future"`
}

// CalendarMonth is a Sunday-first month grid: LeadingBlanks empty cells
// precede day 1.
type CalendarMonth struct {
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	Name          string        `json:"name"`
	LeadingBlanks int           `json:"leading_blanks"`
	Days          []CalendarDay `json:"days"`
}

type MonthView struct {
	CalendarMonth
	Offset       int  `json:"offset"`
	CanGoBack    bool `json:"can_go_back"`
	CanGoForward bool `json:"can_go_forward"`
}

func BuildMonth(year int, month time.Month, data map[string]int, today time.Time) CalendarMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	t := civilDay(today)

	cm := CalendarMonth{
		Year:          year,
		Month:         int(month),
		Name:          first.Format("January 2006"),
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]CalendarDay, 0, last.Day()),
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := DateString(d)
		cm.Days = append(cm.Days, CalendarDay{
			Date:     date,
			Day:      d.Day(),
			Value:    data[date],
			IsToday:  d.Equal(t),
			IsFuture: d.After(t),
		})
	}
	return cm
}

// MonthCalendar renders the month offset months from today's month.
// Navigation stops at the month of the earliest active date and at the
// current month.
func MonthCalendar(data map[string]int, today time.Time, offset int) MonthView {
	base := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
	view := MonthView{
		CalendarMonth: BuildMonth(base.Year(), base.Month(), data, today),
		Offset:        offset,
		CanGoForward:  offset < 0,
	}

	if earliest, ok := earliestActive(data); ok {
		earliestMonth := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, time.UTC)
		view.CanGoBack = base.After(earliestMonth)
	}
	return view
}

// YearCalendar renders every month of year, stopping at the current month
// when year is the current year. Future years are empty.
func YearCalendar(data map[string]int, year int, today time.Time) []CalendarMonth {
	last := time.December
	switch {
	case year > today.Year():
		return []CalendarMonth{}
	case year == today.Year():
		last = today.Month()
	}

	months := make([]CalendarMonth, 0, int(last))
	for m := time.January; m <= last; m++ {
		months = append(months, BuildMonth(year, m, data, today))
	}
	return months
}

// YearOptions lists the years from the earliest active date up to the
// current year, ascending.
func YearOptions(data map[string]int, today time.Time) []int {
	current := today.Year()
	earliest, ok := earliestActive(data)
	if !ok || earliest.Year() >= current {
		return []int{current}
	}
	years := make([]int, 0, current-earliest.Year()+1)
	for y := earliest.Year(); y <= current; y++ {
		years = append(years, y)
	}
	return years
}

func earliestActive(data map[string]int) (time.Time, bool) {
	var dates []string
	for date, v := range data {
		if v > 0 {
			if _, err := parseDay(date); err == nil {
				dates = append(dates, date)
			}
		}
	}
	if len(dates) == 0 {
		return time.Time{}, false
	}
	sort.Strings(dates)
	d, _ := parseDay(dates[0])
	return d, true
}
