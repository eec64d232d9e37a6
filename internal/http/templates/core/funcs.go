// Package core provides the template helpers shared by every admin page.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
)

// FriendlyDateTimeLayout is the display format for timestamps.
const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	// Now overrides the clock used by relativeTime.
	Now func() time.Time
}

// Funcs returns the template.FuncMap used by the admin templates.
func Funcs(deps Deps) template.FuncMap {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"friendlyTime": FormatFriendlyDateTime,
		"relativeTime": func(t time.Time) string { return FriendlyRelativeTime(t, now()) },
		"timeTag":      timeTag,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"formatNumber": FormatNumber,
		"statusClass":  statusClass,
		"roleClass":    roleClass,
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - output of our own html/template execution, already escaped
		return template.HTML(buf.String()), nil
	}
	return funcs
}

// FormatFriendlyDateTime returns a local timestamp, or "" for the zero time.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// FriendlyRelativeTime describes how long before now t occurred. Zero reads as "never".
func FriendlyRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return FormatFriendlyDateTime(t)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

func timeTag(t time.Time) template.HTML {
	if t.IsZero() {
		return ""
	}
	// #nosec G203 - built from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		t.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(FormatFriendlyDateTime(t)),
	))
}

// FormatNumber renders n with comma thousands separators.
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + (len(s)-1)/3 + 1)
	if neg {
		b.WriteByte('-')
	}
	prefix := len(s) % 3
	if prefix == 0 {
		prefix = 3
	}
	b.WriteString(s[:prefix])
	for i := prefix; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func statusClass(status any) string {
	if fmt.Sprint(status) == "disabled" {
		return "badge-danger"
	}
	return "badge-success"
}

// roleClass takes any so named string types like account.Role pass through templates.
func roleClass(role any) string {
	switch fmt.Sprint(role) {
	case "admin", "superuser":
		return "badge-warning"
	case "staff", "member":
		return "badge-info"
	default:
		return "badge-light"
	}
}
