package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeliveryDate is a parsed delivery date code.
type DeliveryDate struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"date"`
	Code      string `json:"code"`
	DateLabel string `json:"dateLong"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Window    string `json:"range"`
}

// Time returns midnight UTC of the delivery day.
func (d DeliveryDate) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Before orders two delivery dates chronologically.
func (d DeliveryDate) Before(other DeliveryDate) bool {
	return d.Time().Before(other.Time())
}

// ParseDeliveryDateCode parses codes of the form "YYYY-M-D" or "YYYY-M-D-start-end",
// e.g. "2024-6-1-09:00-12:00". The canonical grouping key drops the time window and any
// zero padding so that "2024-06-01" and "2024-6-1" land in the same delivery group.
func ParseDeliveryDateCode(code string) (DeliveryDate, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) != 3 && len(parts) != 5 {
		return DeliveryDate{}, fmt.Errorf("invalid delivery date code %q", code)
	}

	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return DeliveryDate{}, fmt.Errorf("invalid delivery date code %q: %w", code, err)
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return DeliveryDate{}, fmt.Errorf("invalid calendar date in delivery date code %q", code)
	}

	d := DeliveryDate{
		Year:      year,
		Month:     month,
		Day:       day,
		Code:      fmt.Sprintf("%d-%d-%d", year, month, day),
		DateLabel: fmt.Sprintf("%s, %02d %s", t.Weekday(), day, t.Month()),
	}
	d.Window = d.DateLabel

	if len(parts) == 5 {
		d.StartTime = parts[3]
		d.EndTime = parts[4]
		d.Window = fmt.Sprintf("%s (%s - %s)", d.DateLabel, d.StartTime, d.EndTime)
	}

	return d, nil
}
