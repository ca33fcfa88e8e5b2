package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Describe returns a short human-readable rendering of an RRULE string for
// confirmation messages and reminder lists ("every 2 weeks on Mon, Thu").
// Falls back to the raw rule when it cannot be parsed.
func Describe(ruleStr string) string {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")
	if ruleStr == "" {
		return "one-time"
	}

	info := make(map[string]string)
	for _, part := range strings.Split(ruleStr, ";") {
		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 {
			info[strings.ToUpper(kv[0])] = kv[1]
		}
	}

	var sb strings.Builder

	freqNames := map[string]string{
		"MINUTELY": "minute",
		"HOURLY":   "hour",
		"DAILY":    "day",
		"WEEKLY":   "week",
		"MONTHLY":  "month",
	}
	unit, known := freqNames[info["FREQ"]]
	if !known {
		return ruleStr
	}

	if interval := info["INTERVAL"]; interval != "" && interval != "1" {
		sb.WriteString(fmt.Sprintf("every %s %ss", interval, unit))
	} else {
		sb.WriteString("every " + unit)
	}

	if byDay := info["BYDAY"]; byDay != "" {
		names := map[string]string{
			"MO": "Mon", "TU": "Tue", "WE": "Wed", "TH": "Thu",
			"FR": "Fri", "SA": "Sat", "SU": "Sun",
		}
		var days []string
		for _, d := range strings.Split(byDay, ",") {
			if n, ok := names[d]; ok {
				days = append(days, n)
			}
		}
		if len(days) > 0 {
			sb.WriteString(" on " + strings.Join(days, ", "))
		}
	}

	if byMonthDay := info["BYMONTHDAY"]; byMonthDay != "" {
		sb.WriteString(" on day " + byMonthDay)
	}

	if count := info["COUNT"]; count != "" {
		sb.WriteString(fmt.Sprintf(", %s times", count))
	}
	if until := info["UNTIL"]; until != "" {
		if t, err := time.Parse("20060102T150405Z", until); err == nil {
			sb.WriteString(", until " + t.Format("2006-01-02"))
		}
	}

	return sb.String()
}
