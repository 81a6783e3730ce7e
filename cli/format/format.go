// Package format holds the pure display-formatting helpers shared by the
// one-shot commands and the live dashboard. Nothing here touches the
// network or the terminal; every function maps a domain value to a string.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Service statuses as reported by the API. Anything else is treated
// as unknown, including an absent status on a never-checked service.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

const timeLayout = "02.01.2006 15:04:05"

// NormalizeStatus collapses the open set of server statuses to the
// three the UI knows how to draw.
func NormalizeStatus(status string) string {
	switch status {
	case StatusHealthy, StatusUnhealthy:
		return status
	}
	return StatusUnknown
}

func StatusLabel(status string) string {
	switch status {
	case StatusHealthy:
		return "Работает"
	case StatusUnhealthy:
		return "Не работает"
	}
	return "Неизвестно"
}

func StatusIcon(status string) string {
	switch status {
	case StatusHealthy:
		return "✅"
	case StatusUnhealthy:
		return "❌"
	}
	return "❓"
}

// Timestamp renders a server timestamp in the local zone.
func Timestamp(t time.Time) string {
	return t.Local().Format(timeLayout)
}

// LastCheck is Timestamp with the never-checked placeholder.
func LastCheck(t time.Time) string {
	if t.IsZero() {
		return "Не проверялся"
	}
	return Timestamp(t)
}

// Uptime renders a rolling uptime percentage. A zero value means the
// server has no data yet (the field is omitted until a check ran).
func Uptime(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func ResponseTime(ms int) string {
	return fmt.Sprintf("%dms", ms)
}

// Sanitize strips terminal control characters from untrusted text so a
// service name or alert message can never inject escape sequences into
// the rendered output. Line breaks and tabs collapse to single spaces;
// everything else below 0x20, DEL and the C1 range is dropped.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f):
			// control character, drop
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
