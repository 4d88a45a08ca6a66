package sweep

import (
	"iter"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// Option configures Compile.
type Option func(*compileOptions)

type compileOptions struct {
	discovered func(key string, pos int)
}

// WithDiscoveryFunc registers a callback invoked for every key that only
// appears in groups and therefore receives the absent default.
func WithDiscoveryFunc(fn func(key string, pos int)) Option {
	return func(o *compileOptions) {
		o.discovered = fn
	}
}

// Sweep is a validated, preprocessed Spec with its canonical key order. It
// is read-only after Compile returns.
type Sweep struct {
	defaults []task.Param
	groups   []Group
	order    KeyOrder
	hook     Hook
}

// Compile validates spec, applies its preprocess hook and builds the key
// order. Every configuration problem is reported here, before any queue
// file is touched.
func Compile(spec *Spec, opts ...Option) (*Sweep, error) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := spec.validate(); err != nil {
		return nil, err
	}
	prepared, err := spec.preprocessed()
	if err != nil {
		return nil, err
	}
	if err := prepared.checkKinds(); err != nil {
		return nil, err
	}

	defaults, order := BuildOrder(prepared, o.discovered)
	return &Sweep{
		defaults: defaults,
		groups:   prepared.Groups,
		order:    order,
		hook:     prepared.Expand,
	}, nil
}

// Defaults returns a copy of the full default assignment in key order.
func (s *Sweep) Defaults() []task.Param {
	return append([]task.Param(nil), s.defaults...)
}

// Order returns a copy of the canonical key order.
func (s *Sweep) Order() KeyOrder {
	out := make(KeyOrder, len(s.order))
	for k, v := range s.order {
		out[k] = v
	}
	return out
}

// Records returns the lazy expansion of the sweep.
func (s *Sweep) Records() iter.Seq[task.Record] {
	return Expand(s.defaults, s.groups, s.order, s.hook)
}
