package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Entry is one formatted log record.
type Entry struct {
	Time    time.Time
	Source  *slog.Source
	Attrs   []Attr
	Message string
	Level   slog.Level
}

// Attr is a flattened slog attribute. Keys of grouped attributes are
// joined with dots.
type Attr struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "bool", "float64", "time", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// Text renders the entry as a single console line.
func (e Entry) Text(prefix string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(e.Level.String())
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		if a.Type == "string" && strings.ContainsAny(a.Value, " =\"") {
			b.WriteString(strconv.Quote(a.Value))
		} else {
			b.WriteString(a.Value)
		}
	}
	if e.Source != nil {
		fmt.Fprintf(&b, " source=%s:%d", e.Source.File, e.Source.Line)
	}
	return b.String()
}

func appendAttr(dst []Attr, groups []string, attr slog.Attr) []Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		sub := attr.Value.Group()
		if len(sub) == 0 {
			return dst
		}
		if attr.Key != "" {
			groups = append(append([]string(nil), groups...), attr.Key)
		}
		for _, a := range sub {
			dst = appendAttr(dst, groups, a)
		}
		return dst
	}
	a := toAttr(attr)
	if len(groups) > 0 {
		a.Key = strings.Join(groups, ".") + "." + a.Key
	}
	return append(dst, a)
}

// toAttr converts a resolved, non-group slog.Attr to an Attr.
func toAttr(attr slog.Attr) Attr {
	out := Attr{
		Key: attr.Key,
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		out.Type = "string"
		out.Value = attr.Value.String()
	case slog.KindInt64:
		out.Type = "int64"
		out.Value = strconv.FormatInt(attr.Value.Int64(), 10)
	case slog.KindUint64:
		out.Type = "uint64"
		out.Value = strconv.FormatUint(attr.Value.Uint64(), 10)
	case slog.KindBool:
		out.Type = "bool"
		out.Value = strconv.FormatBool(attr.Value.Bool())
	case slog.KindFloat64:
		out.Type = "float64"
		out.Value = strconv.FormatFloat(attr.Value.Float64(), 'g', -1, 64)
	case slog.KindTime:
		out.Type = "time"
		out.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		out.Type = "duration"
		out.Value = attr.Value.Duration().String()
	case slog.KindAny:
		v := attr.Value.Any()
		if v == nil {
			out.Type = "any"
			out.Value = "<nil>"
			break
		}
		if err, isErr := v.(error); isErr {
			out.Type = "error"
			out.Value = err.Error()
		} else if data, marshalErr := json.Marshal(v); marshalErr == nil {
			out.Type = "json"
			out.Value = string(data)
		} else {
			out.Type = "any"
			out.Value = fmt.Sprintf("%v", v)
		}
	default:
		out.Type = "any"
		out.Value = fmt.Sprintf("%v", attr.Value.Any())
	}
	return out
}
