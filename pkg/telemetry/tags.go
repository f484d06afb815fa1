package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

var _patternReplacer = strings.NewReplacer(
	"{", "_",
	"}", "",
)

// SanitizeMetricTagValue turns a path template into a tag value: trailing
// slashes are trimmed, "{" becomes "_" and "}" is removed.
func SanitizeMetricTagValue(value string) string {
	if value == "" {
		return ""
	}

	value = strings.TrimRight(value, "/")
	if value == "" {
		return "/"
	}

	return _patternReplacer.Replace(value)
}

// Tags builds "name:value" tags from alternating names and values.
// It panics if the number of arguments is odd, a name is not a string or a
// value is not a string, fmt.Stringer, integer, float or bool.
func Tags(nameValue ...any) []string {
	if len(nameValue)%2 != 0 {
		panic("number of arguments must be even")
	}

	tags := make([]string, 0, len(nameValue)/2)
	for i := 0; i+1 < len(nameValue); i += 2 {
		tags = append(tags, nameValue[i].(string)+":"+stringerize(nameValue[i+1]))
	}

	return tags
}

// StatusTags returns the status and status_class tags of an HTTP exchange.
// A zero code means the exchange failed, and timeout tells whether it failed
// by timing out.
func StatusTags(code int, timeout bool) []string {
	switch {
	case code > 0:
		return []string{"status:" + strconv.Itoa(code), "status_class:" + strconv.Itoa(code/100) + "xx"}
	case timeout:
		return []string{"status:timeout", "status_class:error"}
	default:
		return []string{"status:error", "status_class:error"}
	}
}

func stringerize(value any) string {
	switch t := value.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprintf("%v", value)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		panic(fmt.Sprintf("type %T is unsupported", value))
	}
}
