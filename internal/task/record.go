package task

import (
	"strings"
)

// Param is a single named parameter value.
type Param struct {
	Name  string
	Value Value
}

// P is shorthand for building a Param from a Go scalar. It panics on
// unsupported types and is meant for literals in code and tests.
func P(name string, x any) Param {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return Param{Name: name, Value: v}
}

// Record is an ordered list of parameters describing one task.
type Record []Param

// Get returns the value for name and whether it is present.
func (r Record) Get(name string) (Value, bool) {
	for _, p := range r {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of r with name set to v. The parameter keeps its
// position if present, otherwise it is appended.
func (r Record) With(name string, v Value) Record {
	out := r.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = v
			return out
		}
	}
	return append(out, Param{Name: name, Value: v})
}

// Clone returns a copy of r that shares no backing storage.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Names returns the parameter names in stored order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, p := range r {
		names[i] = p.Name
	}
	return names
}

// Format renders r as space separated name=value pairs in stored order.
func (r Record) Format() string {
	var sb strings.Builder
	for i, p := range r {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Value.String())
	}
	return sb.String()
}
