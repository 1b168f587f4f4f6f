package dbmodel

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"
)

var timeLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Assign stores a column value in dst. sql.Scanner destinations scan the value
// themselves; the basic field types accept the representations drivers return
// for them. A nil src stores the zero value.
func Assign(dst any, src any) error {
	if scanner, ok := dst.(sql.Scanner); ok {
		return scanner.Scan(src)
	}

	switch d := dst.(type) {
	case *any:
		*d = src
		return nil
	case *string:
		if src == nil {
			*d = ""
			return nil
		}
		*d = textOf(src)
		return nil
	case *[]byte:
		switch s := src.(type) {
		case nil:
			*d = nil
		case []byte:
			*d = append([]byte(nil), s...)
		case string:
			*d = []byte(s)
		default:
			return unsupported(dst, src)
		}
		return nil
	case *int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		*d = n
		return nil
	case *int:
		n, err := toIntRange(src, math.MinInt, math.MaxInt)
		if err != nil {
			return err
		}
		*d = int(n)
		return nil
	case *int32:
		n, err := toIntRange(src, math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		*d = int32(n)
		return nil
	case *float64:
		switch s := src.(type) {
		case nil:
			*d = 0
		case float64:
			*d = s
		case float32:
			*d = float64(s)
		case int64:
			*d = float64(s)
		case string, []byte:
			f, err := strconv.ParseFloat(textOf(s), 64)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnsupportedAssign, err)
			}
			*d = f
		default:
			return unsupported(dst, src)
		}
		return nil
	case *bool:
		switch s := src.(type) {
		case nil:
			*d = false
		case bool:
			*d = s
		case int64:
			*d = s != 0
		case string, []byte:
			b, err := strconv.ParseBool(textOf(s))
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnsupportedAssign, err)
			}
			*d = b
		default:
			return unsupported(dst, src)
		}
		return nil
	case *time.Time:
		switch s := src.(type) {
		case nil:
			*d = time.Time{}
		case time.Time:
			*d = s
		case string, []byte:
			t, err := parseTime(textOf(s))
			if err != nil {
				return err
			}
			*d = t
		default:
			return unsupported(dst, src)
		}
		return nil
	}

	return unsupported(dst, src)
}

func toInt64(src any) (int64, error) {
	switch s := src.(type) {
	case nil:
		return 0, nil
	case int64:
		return s, nil
	case int:
		return int64(s), nil
	case int32:
		return int64(s), nil
	case float64:
		if s < math.MinInt64 || s >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v overflows int64", ErrUnsupportedAssign, s)
		}
		return int64(s), nil
	case string, []byte:
		n, err := strconv.ParseInt(textOf(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnsupportedAssign, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %T to integer", ErrUnsupportedAssign, src)
}

// toIntRange is toInt64 limited to [lo, hi].
func toIntRange(src any, lo, hi int64) (int64, error) {
	n, err := toInt64(src)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %v is out of range [%d, %d]", ErrUnsupportedAssign, src, lo, hi)
	}
	return n, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a time", ErrUnsupportedAssign, s)
}

func unsupported(dst, src any) error {
	return fmt.Errorf("%w: %T to %T", ErrUnsupportedAssign, src, dst)
}
