package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Field is an alias for zap.Field.
type Field = zap.Field

func Bool(key string, val bool) Field { return zap.Bool(key, val) }

func Int(key string, val int) Field { return zap.Int(key, val) }

func Int64(key string, val int64) Field { return zap.Int64(key, val) }

func String(key string, val string) Field { return zap.String(key, val) }

func Strings(key string, ss []string) Field { return zap.Strings(key, ss) }

func Stringer(key string, val fmt.Stringer) Field { return zap.Stringer(key, val) }

func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

// Any picks the best field constructor for value, falling back to reflection.
func Any(key string, value any) Field { return zap.Any(key, value) }

// Err is shorthand for NamedErr("error", err). A nil error gives a no-op
// field.
func Err(err error) Field { return zap.Error(err) }

func NamedErr(key string, err error) Field { return zap.NamedError(key, err) }
