// Package schedule provides the static timetable reference data for a network:
// service calendars, trips and their stop times, and the operator-entered
// cancellations and manual delays, along with the date and trip resolution
// performed over them.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

// CalendarException exception types
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// ServiceCalendar contains the weekly service pattern for a service_id with its
// validity window. StartDate and EndDate are kept as raw strings, "YYYYMMDD" or
// "YYYY-MM-DD", and validated when the calendar is resolved.
type ServiceCalendar struct {
	NetworkId string `db:"network_id"`
	ServiceId string `db:"service_id"`
	Monday    int
	Tuesday   int
	Wednesday int
	Thursday  int
	Friday    int
	Saturday  int
	Sunday    int
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
}

// CalendarException adds or removes a service for one exact date, overriding the
// weekly pattern. An Added exception may name a service_id that has no
// ServiceCalendar row at all.
type CalendarException struct {
	NetworkId     string `db:"network_id"`
	ServiceId     string `db:"service_id"`
	Date          string `db:"date"`
	ExceptionType int    `db:"exception_type"`
}

// GetServiceCalendars retrieves all ServiceCalendar rows for a network
func GetServiceCalendars(db *sqlx.DB, networkId string) ([]ServiceCalendar, error) {
	query := "select * from service_calendar where network_id = $1"
	var results []ServiceCalendar
	err := db.Select(&results, db.Rebind(query), networkId)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve service calendars for network %s: %w", networkId, err)
	}
	return results, nil
}

// GetCalendarExceptions retrieves CalendarException rows for a network on one exact date
func GetCalendarExceptions(db *sqlx.DB, networkId string, date time.Time) ([]CalendarException, error) {
	query := "select * from calendar_exception where network_id = $1 and date = $2"
	var results []CalendarException
	err := db.Select(&results, db.Rebind(query), networkId, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar exceptions for network %s: %w", networkId, err)
	}
	return results, nil
}

// ActiveServiceIds resolves the set of service_ids running on date from the weekly
// calendars and the exceptions for that exact date. A service is base-active when
// date falls inside its validity window, inclusive, and its flag for the date's
// weekday is set. Removed exceptions exclude a base-active service, Added
// exceptions include a service regardless of its weekly pattern. Calendars whose
// validity dates cannot be parsed are treated as inactive. An empty result is a
// valid outcome, not an error.
func ActiveServiceIds(calendars []ServiceCalendar, exceptions []CalendarException, date time.Time) []string {
	target := utcMidnight(date)
	serviceIdMap := make(map[string]bool)

	for _, calendar := range calendars {
		start, err := ParseCalendarDate(calendar.StartDate)
		if err != nil {
			continue
		}
		end, err := ParseCalendarDate(calendar.EndDate)
		if err != nil {
			continue
		}
		if target.Before(start) || target.After(end) {
			continue
		}
		if calendar.runsOn(target.Weekday()) {
			serviceIdMap[calendar.ServiceId] = true
		}
	}

	for _, exception := range exceptions {
		exceptionDate, err := ParseCalendarDate(exception.Date)
		if err != nil || !exceptionDate.Equal(target) {
			continue
		}
		switch exception.ExceptionType {
		case ExceptionAdded:
			serviceIdMap[exception.ServiceId] = true
		case ExceptionRemoved:
			delete(serviceIdMap, exception.ServiceId)
		}
	}

	serviceIds := make([]string, 0, len(serviceIdMap))
	for serviceId := range serviceIdMap {
		serviceIds = append(serviceIds, serviceId)
	}
	sort.Strings(serviceIds)
	return serviceIds
}

func (c *ServiceCalendar) runsOn(weekday time.Weekday) bool {
	switch weekday {
	case time.Monday:
		return c.Monday == 1
	case time.Tuesday:
		return c.Tuesday == 1
	case time.Wednesday:
		return c.Wednesday == 1
	case time.Thursday:
		return c.Thursday == 1
	case time.Friday:
		return c.Friday == 1
	case time.Saturday:
		return c.Saturday == 1
	case time.Sunday:
		return c.Sunday == 1
	}
	return false
}

// ParseCalendarDate parses a calendar date in "YYYYMMDD" or "YYYY-MM-DD" form at
// UTC midnight. Dates outside the years 2000 through 2050 are rejected to guard
// against garbage in imported feeds.
func ParseCalendarDate(raw string) (time.Time, error) {
	var parsed time.Time
	var err error
	for _, layout := range []string{"20060102", "2006-01-02"} {
		parsed, err = time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse calendar date %q: %w", raw, err)
	}
	if parsed.Year() < 2000 || parsed.Year() > 2050 {
		return time.Time{}, fmt.Errorf("calendar date %q out of supported range", raw)
	}
	return parsed, nil
}

// utcMidnight places a date at midnight UTC so window comparisons cannot drift
// across a day boundary with the local timezone.
func utcMidnight(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
