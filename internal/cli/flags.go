package cli

import (
	"strconv"
	"time"
)

// Optional is a flag.Value that records whether the flag was set at all,
// so unset flags do not clobber config file values.
type Optional[T any] struct {
	parse func(string) (T, error)
	value T
	set   bool
}

func (o *Optional[T]) Set(s string) error {
	v, err := o.parse(s)
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

func (o *Optional[T]) String() string {
	if !o.set {
		return ""
	}
	return toString(any(o.value))
}

// Value returns the parsed value and whether the flag was set.
func (o *Optional[T]) Value() (T, bool) {
	return o.value, o.set
}

// NewDuration returns an optional duration flag value.
func NewDuration() *Optional[time.Duration] {
	return &Optional[time.Duration]{parse: time.ParseDuration}
}

// NewInt returns an optional int flag value.
func NewInt() *Optional[int] {
	return &Optional[int]{parse: strconv.Atoi}
}

// NewString returns an optional string flag value.
func NewString() *Optional[string] {
	return &Optional[string]{parse: func(s string) (string, error) { return s, nil }}
}

// Bool is the bool specialization; it needs IsBoolFlag so the flag
// package accepts it without an argument.
type Bool struct {
	Optional[bool]
}

// NewBool returns an optional bool flag value.
func NewBool() *Bool {
	return &Bool{Optional[bool]{parse: strconv.ParseBool}}
}

func (b *Bool) IsBoolFlag() bool {
	return true
}

func toString(v any) string {
	switch v := v.(type) {
	case time.Duration:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
