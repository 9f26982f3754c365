package schedule

import (
	"testing"
)

func TestParseDayTimeSeconds(t *testing.T) {
	tests := []struct {
		give    string
		want    int
		wantErr bool
	}{
		{give: "08:00", want: 8 * 3600},
		{give: "08:00:30", want: 8*3600 + 30},
		{give: "00:00:00", want: 0},
		{give: "23:59:59", want: 23*3600 + 59*60 + 59},
		//times past midnight exceed 24 hours on the service day
		{give: "25:10:00", want: 25*3600 + 10*60},
		{give: "8h00", wantErr: true},
		{give: "08:61", wantErr: true},
		{give: "08:00:75", wantErr: true},
		{give: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			got, err := ParseDayTimeSeconds(tt.give)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDayTimeSeconds(%q) expected error, got %d", tt.give, got)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseDayTimeSeconds(%q) unexpected error: %v", tt.give, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDayTimeSeconds(%q) = %d, want %d", tt.give, got, tt.want)
			}
		})
	}
}

func TestFormatHHMM(t *testing.T) {
	tests := []struct {
		name        string
		giveMinutes int
		want        string
	}{
		{name: "morning", giveMinutes: 8*60 + 5, want: "08:05"},
		{name: "midnight", giveMinutes: 0, want: "00:00"},
		{name: "wraps past midnight", giveMinutes: 24*60 + 10, want: "00:10"},
		{name: "wraps negative", giveMinutes: -10, want: "23:50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatHHMM(tt.giveMinutes); got != tt.want {
				t.Errorf("FormatHHMM(%d) = %s, want %s", tt.giveMinutes, got, tt.want)
			}
		})
	}
}

func TestAddMinutes(t *testing.T) {
	tests := []struct {
		name      string
		giveTime  string
		giveDelta int
		want      string
	}{
		{name: "simple delay", giveTime: "10:00:00", giveDelta: 12, want: "10:12"},
		{name: "early", giveTime: "10:00:00", giveDelta: -3, want: "09:57"},
		{name: "wraps across midnight", giveTime: "23:55:00", giveDelta: 12, want: "00:07"},
		{name: "wraps back across midnight", giveTime: "00:05", giveDelta: -10, want: "23:55"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddMinutes(tt.giveTime, tt.giveDelta)
			if err != nil {
				t.Errorf("AddMinutes(%q, %d) unexpected error: %v", tt.giveTime, tt.giveDelta, err)
				return
			}
			if got != tt.want {
				t.Errorf("AddMinutes(%q, %d) = %s, want %s", tt.giveTime, tt.giveDelta, got, tt.want)
			}
		})
	}
}

func TestNormalizeDelayMinutes(t *testing.T) {
	tests := []struct {
		name string
		give int
		want int
	}{
		{name: "small delay unchanged", give: 10, want: 10},
		{name: "small early unchanged", give: -10, want: -10},
		{name: "midnight wrap forward", give: -1430, want: 10},
		{name: "midnight wrap backward", give: 1430, want: -10},
		{name: "upper bound inclusive", give: 720, want: 720},
		{name: "lower bound folds up", give: -720, want: 720},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDelayMinutes(tt.give); got != tt.want {
				t.Errorf("NormalizeDelayMinutes(%d) = %d, want %d", tt.give, got, tt.want)
			}
		})
	}
}

func TestTrimToHHMM(t *testing.T) {
	tests := []struct {
		give string
		want string
	}{
		{give: "08:15:30", want: "08:15"},
		{give: "08:15", want: "08:15"},
		//display wraps times past midnight back into the day
		{give: "25:10:00", want: "01:10"},
		//unparsable input passes through untouched
		{give: "bogus", want: "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			if got := TrimToHHMM(tt.give); got != tt.want {
				t.Errorf("TrimToHHMM(%q) = %s, want %s", tt.give, got, tt.want)
			}
		})
	}
}

func TestDayTimeDistanceMinutes(t *testing.T) {
	tests := []struct {
		name  string
		giveA string
		giveB string
		want  int
	}{
		{name: "later first", giveA: "08:15:00", giveB: "08:10", want: 5},
		{name: "earlier first", giveA: "08:00", giveB: "08:10", want: 10},
		{name: "equal", giveA: "08:10", giveB: "08:10:00", want: 0},
		{name: "unparsable", giveA: "xx", giveB: "08:10", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayTimeDistanceMinutes(tt.giveA, tt.giveB); got != tt.want {
				t.Errorf("DayTimeDistanceMinutes(%q, %q) = %d, want %d", tt.giveA, tt.giveB, got, tt.want)
			}
		})
	}
}
