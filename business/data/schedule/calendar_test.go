package schedule

import (
	"reflect"
	"testing"
	"time"
)

func mondayOnlyCalendar(serviceId string) ServiceCalendar {
	return ServiceCalendar{
		NetworkId: "net1",
		ServiceId: serviceId,
		Monday:    1,
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
	}
}

func TestActiveServiceIds(t *testing.T) {
	monday := time.Date(2024, 3, 4, 10, 30, 0, 0, time.Local)
	sunday := time.Date(2024, 3, 3, 10, 30, 0, 0, time.Local)

	tests := []struct {
		name           string
		giveCalendars  []ServiceCalendar
		giveExceptions []CalendarException
		giveDate       time.Time
		want           []string
	}{
		{
			name:          "weekday flag matches",
			giveCalendars: []ServiceCalendar{mondayOnlyCalendar("wk")},
			giveDate:      monday,
			want:          []string{"wk"},
		},
		{
			name:          "weekday flag does not match",
			giveCalendars: []ServiceCalendar{mondayOnlyCalendar("wk")},
			giveDate:      sunday,
			want:          []string{},
		},
		{
			name: "date before validity window",
			giveCalendars: []ServiceCalendar{{
				ServiceId: "wk",
				Monday:    1,
				StartDate: "2024-06-01",
				EndDate:   "2024-12-31",
			}},
			giveDate: monday,
			want:     []string{},
		},
		{
			name: "window bounds are inclusive",
			giveCalendars: []ServiceCalendar{{
				ServiceId: "wk",
				Monday:    1,
				StartDate: "20240304",
				EndDate:   "20240304",
			}},
			giveDate: monday,
			want:     []string{"wk"},
		},
		{
			name:          "added exception activates an off day",
			giveCalendars: []ServiceCalendar{mondayOnlyCalendar("wk")},
			giveExceptions: []CalendarException{
				{ServiceId: "wk", Date: "2024-03-03", ExceptionType: ExceptionAdded},
			},
			giveDate: sunday,
			want:     []string{"wk"},
		},
		{
			name:          "removed exception deactivates an on day",
			giveCalendars: []ServiceCalendar{mondayOnlyCalendar("wk")},
			giveExceptions: []CalendarException{
				{ServiceId: "wk", Date: "2024-03-04", ExceptionType: ExceptionRemoved},
			},
			giveDate: monday,
			want:     []string{},
		},
		{
			name: "added exception may introduce an unknown service",
			giveExceptions: []CalendarException{
				{ServiceId: "extra", Date: "20240304", ExceptionType: ExceptionAdded},
			},
			giveDate: monday,
			want:     []string{"extra"},
		},
		{
			name: "exception for another date is ignored",
			giveExceptions: []CalendarException{
				{ServiceId: "extra", Date: "2024-03-05", ExceptionType: ExceptionAdded},
			},
			giveDate: monday,
			want:     []string{},
		},
		{
			name: "malformed start date deactivates the service",
			giveCalendars: []ServiceCalendar{{
				ServiceId: "bad",
				Monday:    1,
				StartDate: "not-a-date",
				EndDate:   "2024-12-31",
			}},
			giveDate: monday,
			want:     []string{},
		},
		{
			name: "out of range year deactivates the service",
			giveCalendars: []ServiceCalendar{{
				ServiceId: "bad",
				Monday:    1,
				StartDate: "1990-01-01",
				EndDate:   "2024-12-31",
			}},
			giveDate: monday,
			want:     []string{},
		},
		{
			name: "duplicate service ids collapse",
			giveCalendars: []ServiceCalendar{
				mondayOnlyCalendar("wk"),
				mondayOnlyCalendar("wk"),
			},
			giveDate: monday,
			want:     []string{"wk"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveServiceIds(tt.giveCalendars, tt.giveExceptions, tt.giveDate)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ActiveServiceIds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCalendarDate(t *testing.T) {
	tests := []struct {
		give    string
		want    time.Time
		wantErr bool
	}{
		{give: "20240304", want: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{give: "2024-03-04", want: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{give: "04/03/2024", wantErr: true},
		{give: "19990101", wantErr: true},
		{give: "20510101", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			got, err := ParseCalendarDate(tt.give)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCalendarDate(%q) expected error, got %v", tt.give, got)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseCalendarDate(%q) unexpected error: %v", tt.give, err)
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseCalendarDate(%q) = %v, want %v", tt.give, got, tt.want)
			}
		})
	}
}
