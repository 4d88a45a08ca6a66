package sweep

import (
	"slices"
	"strings"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// KeyOrder maps a parameter name to its canonical column position.
type KeyOrder map[string]int

// Position returns the position of name and whether it is known.
func (o KeyOrder) Position(name string) (int, bool) {
	pos, ok := o[name]
	return pos, ok
}

// Keys returns the known names sorted by position.
func (o KeyOrder) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int { return o[a] - o[b] })
	return keys
}

// Sort orders r in place by canonical position. Names without a position
// sort after every known name, by name.
func (o KeyOrder) Sort(r task.Record) {
	slices.SortStableFunc(r, func(a, b task.Param) int {
		pa, oka := o[a.Name]
		pb, okb := o[b.Name]
		switch {
		case oka && okb:
			return pa - pb
		case oka:
			return -1
		case okb:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})
}

// BuildOrder assigns positions 0..k-1 to the defaults in declared order, then
// scans the groups in order and gives every unseen key the next position and
// the absent default. discovered, if non-nil, is called once per such key.
// The returned defaults cover every key referenced anywhere in spec.
func BuildOrder(spec *Spec, discovered func(key string, pos int)) ([]task.Param, KeyOrder) {
	order := make(KeyOrder, len(spec.Defaults))
	defaults := make([]task.Param, 0, len(spec.Defaults))
	for _, p := range spec.Defaults {
		order[p.Name] = len(order)
		defaults = append(defaults, p)
	}

	for _, g := range spec.Groups {
		for _, ax := range g {
			if _, ok := order[ax.Key]; ok {
				continue
			}
			pos := len(order)
			order[ax.Key] = pos
			defaults = append(defaults, task.Param{Name: ax.Key, Value: task.Absent()})
			if discovered != nil {
				discovered(ax.Key, pos)
			}
		}
	}
	return defaults, order
}
