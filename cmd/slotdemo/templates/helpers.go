package templates

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

func plural(n int, noun string) string {
	var sb strings.Builder
	sb.WriteString(humanize.Comma(int64(n)))
	sb.WriteByte(' ')
	sb.WriteString(noun)
	if n != 1 {
		sb.WriteByte('s')
	}
	return sb.String()
}

// Counter formats n for the report.
func Counter(n uint64) string {
	if n > 1<<63-1 {
		return strconv.FormatUint(n, 10)
	}
	return humanize.Comma(int64(n))
}
