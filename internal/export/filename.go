package export

import (
	"strings"
	"time"
)

// isoMillis is the ISO-8601 layout with millisecond precision in UTC.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Timestamp formats t as ISO-8601 UTC with ':' and '.' replaced by '-',
// e.g. 2024-05-01T10-20-30-123Z.
func Timestamp(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format(isoMillis))
}

// Filename builds "<name>_<timestamp><ext>". ext includes its leading dot.
func Filename(name, ext string, now time.Time) string {
	return name + "_" + Timestamp(now) + ext
}
