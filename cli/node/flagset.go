package node

import (
	"math"
	"time"
)

// FlagSet holds the values of the flags of a command so that they can be sent
// to the daemon. The accessors accept the native values as well as the values
// produced by a JSON decoding, where every number is a float64 and every list
// is a []interface{}.
//
// - implements cli.Flags
type FlagSet map[string]interface{}

// String implements cli.Flags.
func (fset FlagSet) String(name string) string {
	value, _ := fset[name].(string)

	return value
}

// StringSlice implements cli.Flags.
func (fset FlagSet) StringSlice(name string) []string {
	switch v := fset[name].(type) {
	case []string:
		return v
	case []interface{}:
		values := make([]string, len(v))
		for i, elem := range v {
			values[i], _ = elem.(string)
		}

		return values
	default:
		return nil
	}
}

// Duration implements cli.Flags. A JSON number is a number of nanoseconds.
func (fset FlagSet) Duration(name string) time.Duration {
	switch v := fset[name].(type) {
	case time.Duration:
		return v
	case float64:
		return time.Duration(v)
	default:
		return 0
	}
}

// Path implements cli.Flags.
func (fset FlagSet) Path(name string) string {
	return fset.String(name)
}

// Int implements cli.Flags. A number with a fractional part is not an integer
// and returns zero.
func (fset FlagSet) Int(name string) int {
	switch v := fset[name].(type) {
	case int:
		return v
	case float64:
		if v != math.Trunc(v) {
			return 0
		}

		return int(v)
	default:
		return 0
	}
}

// Bool implements cli.Flags.
func (fset FlagSet) Bool(name string) bool {
	value, _ := fset[name].(bool)

	return value
}
