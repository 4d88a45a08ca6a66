package sweep

import (
	"github.com/Iron-Ham/sweepq/internal/task"
)

// Axis is one swept key together with its candidate values.
type Axis struct {
	Key    string
	Values []task.Value
}

// Group is a set of axes expanded as a Cartesian product.
type Group []Axis

// Hook maps one overlaid assignment to the records that should be queued for
// it. Returning nil drops the assignment, returning the input unchanged
// accepts it, and returning several records fans it out.
type Hook func(task.Record) []task.Record

// PreprocessFunc normalizes a (name, value) pair. It is called once per
// distinct pair found in the defaults and groups. Renaming a key is not
// allowed.
type PreprocessFunc func(name string, v task.Value) (string, task.Value, error)

// Spec is the immutable input of an expansion. It is built once, by hand or
// with Load, and passed explicitly to Compile.
type Spec struct {
	// Defaults is the baseline assignment in declared order.
	Defaults []task.Param
	// Groups are independent sweep axes; their results are concatenated.
	Groups []Group
	// Preprocess is optional.
	Preprocess PreprocessFunc
	// Expand is optional; nil accepts every assignment unchanged.
	Expand Hook
}

// Identity is the Hook that accepts every assignment unchanged.
func Identity(r task.Record) []task.Record {
	return []task.Record{r}
}

// Chain composes hooks left to right. A record dropped by one hook is not
// passed to the next.
func Chain(hooks ...Hook) Hook {
	return func(r task.Record) []task.Record {
		cur := []task.Record{r}
		for _, h := range hooks {
			if h == nil {
				continue
			}
			var next []task.Record
			for _, c := range cur {
				next = append(next, h(c)...)
			}
			cur = next
			if len(cur) == 0 {
				return nil
			}
		}
		return cur
	}
}

// validate checks the structural rules that do not depend on preprocessing.
func (s *Spec) validate() error {
	seen := make(map[string]bool, len(s.Defaults))
	for _, p := range s.Defaults {
		if p.Name == "" {
			return configErr(-1, "", "default with empty key")
		}
		if seen[p.Name] {
			return configErr(-1, p.Name, "declared twice in defaults")
		}
		if p.Value.IsAbsent() {
			return configErr(-1, p.Name, "default value must not be null")
		}
		seen[p.Name] = true
	}

	for gi, g := range s.Groups {
		inGroup := make(map[string]bool, len(g))
		for _, ax := range g {
			if ax.Key == "" {
				return configErr(gi, "", "axis with empty key")
			}
			if inGroup[ax.Key] {
				return configErr(gi, ax.Key, "appears more than once in the same group")
			}
			inGroup[ax.Key] = true
			if len(ax.Values) == 0 {
				return configErr(gi, ax.Key, "has no candidate values")
			}
			for _, v := range ax.Values {
				if v.IsAbsent() {
					return configErr(gi, ax.Key, "candidate value must not be null")
				}
			}
		}
	}
	return nil
}

// checkKinds rejects keys whose values disagree on kind across the defaults
// and groups. Ints and floats are both numeric and may be mixed.
func (s *Spec) checkKinds() error {
	kinds := make(map[string]task.Kind)
	check := func(group int, key string, v task.Value) error {
		k := v.Kind()
		prev, ok := kinds[key]
		if !ok {
			kinds[key] = k
			return nil
		}
		if prev == k || (prev.Numeric() && k.Numeric()) {
			return nil
		}
		return configErr(group, key, "conflicting value kinds %s and %s", prev, k)
	}

	for _, p := range s.Defaults {
		if err := check(-1, p.Name, p.Value); err != nil {
			return err
		}
	}
	for gi, g := range s.Groups {
		for _, ax := range g {
			for _, v := range ax.Values {
				if err := check(gi, ax.Key, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// preprocessed returns a copy of s with Preprocess applied once per distinct
// (name, value) pair.
func (s *Spec) preprocessed() (*Spec, error) {
	out := &Spec{
		Defaults: make([]task.Param, len(s.Defaults)),
		Groups:   make([]Group, len(s.Groups)),
		Expand:   s.Expand,
	}
	if s.Preprocess == nil {
		copy(out.Defaults, s.Defaults)
		for gi, g := range s.Groups {
			out.Groups[gi] = cloneGroup(g)
		}
		return out, nil
	}

	type pair struct {
		name string
		v    task.Value
	}
	cache := make(map[pair]task.Value)
	apply := func(group int, name string, v task.Value) (task.Value, error) {
		key := pair{name, v}
		if nv, ok := cache[key]; ok {
			return nv, nil
		}
		nn, nv, err := s.Preprocess(name, v)
		if err != nil {
			return task.Value{}, configErr(group, name, "preprocess %s: %v", v, err)
		}
		if nn != name {
			return task.Value{}, configErr(group, name, "preprocess renamed key to %q", nn)
		}
		if nv.IsAbsent() {
			return task.Value{}, configErr(group, name, "preprocess returned null for %s", v)
		}
		cache[key] = nv
		return nv, nil
	}

	for i, p := range s.Defaults {
		nv, err := apply(-1, p.Name, p.Value)
		if err != nil {
			return nil, err
		}
		out.Defaults[i] = task.Param{Name: p.Name, Value: nv}
	}
	for gi, g := range s.Groups {
		ng := make(Group, len(g))
		for ai, ax := range g {
			vals := make([]task.Value, len(ax.Values))
			for vi, v := range ax.Values {
				nv, err := apply(gi, ax.Key, v)
				if err != nil {
					return nil, err
				}
				vals[vi] = nv
			}
			ng[ai] = Axis{Key: ax.Key, Values: vals}
		}
		out.Groups[gi] = ng
	}
	return out, nil
}

func cloneGroup(g Group) Group {
	out := make(Group, len(g))
	for i, ax := range g {
		out[i] = Axis{Key: ax.Key, Values: append([]task.Value(nil), ax.Values...)}
	}
	return out
}
