package sweep

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// Rules are the declarative hooks a sweep file can carry: value aliases used
// as the preprocess step, exclusion patterns and fan-out splits used as the
// expand hook.
type Rules struct {
	aliases map[string]map[string]task.Value
	exclude []excludeRule
	fanout  []FanoutRule
}

// Condition matches the formatted value of Key against a glob pattern.
type Condition struct {
	Key     string
	Pattern string
}

// FanoutRule splits each record into one copy per value of Key.
type FanoutRule struct {
	Key    string
	Values []task.Value
}

type excludeRule struct {
	conds []compiledCondition
}

type compiledCondition struct {
	key string
	g   glob.Glob
}

// NewRules compiles the given aliases, exclusion rules and fan-out rules.
// Each exclusion rule is a conjunction of conditions; a record matching every
// condition of any rule is dropped. A disabled value matches no condition.
func NewRules(aliases map[string]map[string]task.Value, exclude [][]Condition, fanout []FanoutRule) (*Rules, error) {
	r := &Rules{aliases: aliases}
	for i, conds := range exclude {
		if len(conds) == 0 {
			return nil, configErr(-1, "", "exclude rule %d has no conditions", i)
		}
		rule := excludeRule{conds: make([]compiledCondition, 0, len(conds))}
		for _, c := range conds {
			g, err := glob.Compile(c.Pattern)
			if err != nil {
				return nil, configErr(-1, c.Key, "exclude rule %d: bad pattern %q: %v", i, c.Pattern, err)
			}
			rule.conds = append(rule.conds, compiledCondition{key: c.Key, g: g})
		}
		r.exclude = append(r.exclude, rule)
	}
	for i, f := range fanout {
		if f.Key == "" {
			return nil, configErr(-1, "", "fanout rule %d has no key", i)
		}
		if len(f.Values) == 0 {
			return nil, configErr(-1, f.Key, "fanout rule %d has no values", i)
		}
	}
	r.fanout = fanout
	return r, nil
}

// Preprocess returns the alias lookup as a PreprocessFunc, or nil when there
// are no aliases.
func (r *Rules) Preprocess() PreprocessFunc {
	if len(r.aliases) == 0 {
		return nil
	}
	return func(name string, v task.Value) (string, task.Value, error) {
		if m, ok := r.aliases[name]; ok {
			if nv, ok := m[v.String()]; ok {
				return name, nv, nil
			}
		}
		return name, v, nil
	}
}

// Hook returns the exclusion and fan-out rules as a single Hook, or nil when
// there are none.
func (r *Rules) Hook() Hook {
	if len(r.exclude) == 0 && len(r.fanout) == 0 {
		return nil
	}
	return func(rec task.Record) []task.Record {
		if r.excluded(rec) {
			return nil
		}
		out := []task.Record{rec}
		for _, f := range r.fanout {
			next := make([]task.Record, 0, len(out)*len(f.Values))
			for _, o := range out {
				for _, v := range f.Values {
					next = append(next, o.With(f.Key, v))
				}
			}
			out = next
		}
		return out
	}
}

func (r *Rules) excluded(rec task.Record) bool {
	for _, rule := range r.exclude {
		matched := true
		for _, c := range rule.conds {
			v, ok := rec.Get(c.key)
			if !ok || v.IsAbsent() || !c.g.Match(v.String()) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// String summarizes the rules for diagnostics.
func (r *Rules) String() string {
	keys := make([]string, 0, len(r.aliases))
	for k := range r.aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("aliases=%v exclude=%d fanout=%d", keys, len(r.exclude), len(r.fanout))
}
