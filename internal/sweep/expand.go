package sweep

import (
	"iter"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// Expand yields, for each group in turn, every combination of the group's
// candidate values overlaid on defaults, sorted by order and passed through
// hook. The last axis of a group varies fastest. A group with no axes yields
// the defaults once. A nil hook accepts every assignment.
//
// The sequence is lazy; ranging over it again re-runs the expansion.
func Expand(defaults []task.Param, groups []Group, order KeyOrder, hook Hook) iter.Seq[task.Record] {
	if hook == nil {
		hook = Identity
	}
	return func(yield func(task.Record) bool) {
		for _, g := range groups {
			if !expandGroup(defaults, g, order, hook, yield) {
				return
			}
		}
	}
}

func expandGroup(defaults []task.Param, g Group, order KeyOrder, hook Hook, yield func(task.Record) bool) bool {
	for _, ax := range g {
		if len(ax.Values) == 0 {
			return true
		}
	}

	idx := make([]int, len(g))
	for {
		overlay := make(map[string]task.Value, len(g))
		for i, ax := range g {
			overlay[ax.Key] = ax.Values[idx[i]]
		}

		rec := make(task.Record, 0, len(defaults)+len(g))
		seen := make(map[string]bool, len(defaults))
		for _, p := range defaults {
			if v, ok := overlay[p.Name]; ok {
				p.Value = v
			}
			rec = append(rec, p)
			seen[p.Name] = true
		}
		// Keys absent from defaults only happen when the caller skipped
		// BuildOrder; keep the record total anyway.
		for _, ax := range g {
			if !seen[ax.Key] {
				rec = append(rec, task.Param{Name: ax.Key, Value: overlay[ax.Key]})
			}
		}
		order.Sort(rec)

		for _, out := range hook(rec) {
			if !yield(out) {
				return false
			}
		}

		// Advance the odometer, last axis fastest.
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g[i].Values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return true
		}
	}
}
