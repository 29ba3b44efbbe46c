package logging

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultTimestampFormat = "2006-01-02 15:04:05"

// TextFormatter renders records as
//
//	<time> [LEVEL] [component] message key=value ... error="..."
//
// Values containing spaces or quotes are quoted so the line stays parseable.
type TextFormatter struct {
	Config FormatConfig
}

// Format renders a single log entry.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder

	if !f.Config.DisableTimestamp {
		layout := f.Config.TimestampFormat
		if layout == "" {
			layout = defaultTimestampFormat
		}
		b.WriteString(entry.Time.Format(layout))
		b.WriteByte(' ')
	}

	level := entry.Level.String()
	if entry.Level == logrus.WarnLevel {
		level = "warn"
	}
	b.WriteString("[" + strings.ToUpper(level) + "]")

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		b.WriteString(" [" + toString(component) + "]")
	}

	if entry.HasCaller() {
		b.WriteString(" [" + filepath.Base(entry.Caller.File) + ":" + strconv.Itoa(entry.Caller.Line) +
			" " + filepath.Base(entry.Caller.Function) + "]")
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if key != "component" && key != logrus.ErrorKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := entry.Data[logrus.ErrorKey]; ok {
		keys = append(keys, logrus.ErrorKey)
	}
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(toString(entry.Data[key])))
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func toString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
