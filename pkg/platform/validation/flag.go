package validation

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Flag is a weakly-typed boolean. It accepts true/false, "true"/"false",
// "yes"/"no", "on"/"off", "1"/"0" and the numbers 1/0.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = false
		return nil
	case bool:
		*f = Flag(t)
		return nil
	case float64:
		if t == 0 || t == 1 {
			*f = t == 1
			return nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "on":
			*f = true
			return nil
		case "false", "no", "0", "off", "":
			*f = false
			return nil
		}
	}
	// Reported as a type error so the decoder attaches the field path.
	return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(true)}
}

// Bool returns the flag as a plain bool; a nil flag is false.
func (f *Flag) Bool() bool {
	return f != nil && bool(*f)
}
