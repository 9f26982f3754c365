package lineview

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"
)

// networkHolidayCalendar holds the public holidays observed by the network,
// surfaced next to the resolved services because most operators run a reduced
// timetable on those days.
// TODO:: make the holiday set configurable per network instead of assuming France.
type networkHolidayCalendar struct {
	calendar *cal.BusinessCalendar
}

func makeNetworkHolidayCalendar() *networkHolidayCalendar {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(fr.Holidays...)
	return &networkHolidayCalendar{calendar: calendar}
}

// isHoliday returns true if at falls on an observed public holiday
func (n *networkHolidayCalendar) isHoliday(at time.Time) bool {
	_, observed, _ := n.calendar.IsHoliday(at)
	return observed
}
