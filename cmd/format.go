package cmd

import (
	"strconv"
	"strings"

	"thoreinstein.com/histng/pkg/store"
)

// formatRecord renders one execution using a printf-like format string:
//
//	%i  one-based index in the listing
//	%c  command text
//	%p  project name
//	%s  session token
//	%d  working directory
//	%t  timestamp (2006-01-02 15:04:05)
//	%%  literal percent
//
// An unknown verb passes through verbatim.
func formatRecord(index int, rec store.ExecutionRecord, format string) string {
	var b strings.Builder

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' || i+1 >= len(format) {
			b.WriteByte(ch)
			continue
		}

		i++
		switch format[i] {
		case 'i':
			b.WriteString(strconv.Itoa(index))
		case 'c':
			b.WriteString(rec.Command)
		case 'p':
			b.WriteString(rec.Project)
		case 's':
			b.WriteString(rec.Session)
		case 'd':
			b.WriteString(rec.Pwd)
		case 't':
			b.WriteString(rec.Timestamp.Format("2006-01-02 15:04:05"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}

	return b.String()
}
