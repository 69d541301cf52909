package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// valuer is implemented by boxed bus values such as dbus.Variant.
type valuer interface {
	Value() interface{}
}

// unwrap strips any number of boxing layers from a bus value.
func unwrap(val any) any {
	for {
		v, ok := val.(valuer)
		if !ok {
			return val
		}
		val = v.Value()
	}
}

// ToUint32 converts a value to uint32. The second return is false when the
// value is negative, out of range or not numeric.
func ToUint32(val any) (uint32, bool) {
	switch v := unwrap(val).(type) {
	case uint32:
		return v, true
	case uint8:
		return uint32(v), true
	case uint16:
		return uint32(v), true
	case uint64:
		if v > 0xFFFFFFFF {
			return 0, false
		}
		return uint32(v), true
	case int:
		if v < 0 || int64(v) > 0xFFFFFFFF {
			return 0, false
		}
		return uint32(v), true
	case int32:
		if v < 0 {
			return 0, false
		}
		return uint32(v), true
	case int64:
		if v < 0 || v > 0xFFFFFFFF {
			return 0, false
		}
		return uint32(v), true
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(n), true
	default:
		return 0, false
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := unwrap(val).(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
