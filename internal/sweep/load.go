package sweep

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/sweepq/internal/task"
)

// sweepFile is the on-disk shape of a sweep definition. Mappings are kept as
// nodes so declaration order survives decoding.
type sweepFile struct {
	Defaults yaml.Node            `yaml:"defaults"`
	Tests    []yaml.Node          `yaml:"tests"`
	Aliases  map[string]yaml.Node `yaml:"aliases,omitempty"`
	Exclude  []yaml.Node          `yaml:"exclude,omitempty"`
	Fanout   []fanoutEntry        `yaml:"fanout,omitempty"`
}

type fanoutEntry struct {
	Key    string      `yaml:"key"`
	Values []yaml.Node `yaml:"values"`
}

// Load reads a YAML sweep definition from path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep file: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse decodes a YAML sweep definition. The document has an ordered
// defaults mapping, a list of test groups (each an ordered mapping from key
// to a value or list of values) and optional aliases, exclude and fanout
// rules.
func Parse(data []byte) (*Spec, error) {
	var f sweepFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	spec := &Spec{}
	if f.Defaults.Kind != 0 {
		if err := eachPair(&f.Defaults, -1, func(key string, v *yaml.Node) error {
			val, err := scalarValue(v)
			if err != nil {
				return configErr(-1, key, "%v", err)
			}
			spec.Defaults = append(spec.Defaults, task.Param{Name: key, Value: val})
			return nil
		}); err != nil {
			return nil, err
		}
	}

	for gi := range f.Tests {
		var g Group
		if err := eachPair(&f.Tests[gi], gi, func(key string, v *yaml.Node) error {
			vals, err := valueList(v)
			if err != nil {
				return configErr(gi, key, "%v", err)
			}
			g = append(g, Axis{Key: key, Values: vals})
			return nil
		}); err != nil {
			return nil, err
		}
		spec.Groups = append(spec.Groups, g)
	}

	rules, err := parseRules(&f)
	if err != nil {
		return nil, err
	}
	spec.Preprocess = rules.Preprocess()
	spec.Expand = rules.Hook()
	return spec, nil
}

func parseRules(f *sweepFile) (*Rules, error) {
	var aliases map[string]map[string]task.Value
	if len(f.Aliases) > 0 {
		aliases = make(map[string]map[string]task.Value, len(f.Aliases))
		for key := range f.Aliases {
			node := f.Aliases[key]
			m := make(map[string]task.Value)
			if err := eachPair(&node, -1, func(from string, to *yaml.Node) error {
				val, err := scalarValue(to)
				if err != nil {
					return configErr(-1, key, "alias %q: %v", from, err)
				}
				m[from] = val
				return nil
			}); err != nil {
				return nil, err
			}
			aliases[key] = m
		}
	}

	exclude := make([][]Condition, 0, len(f.Exclude))
	for i := range f.Exclude {
		var conds []Condition
		if err := eachPair(&f.Exclude[i], -1, func(key string, v *yaml.Node) error {
			if v.Kind != yaml.ScalarNode {
				return configErr(-1, key, "exclude pattern must be a scalar")
			}
			conds = append(conds, Condition{Key: key, Pattern: v.Value})
			return nil
		}); err != nil {
			return nil, err
		}
		exclude = append(exclude, conds)
	}

	fanout := make([]FanoutRule, 0, len(f.Fanout))
	for _, e := range f.Fanout {
		rule := FanoutRule{Key: e.Key}
		for i := range e.Values {
			val, err := scalarValue(&e.Values[i])
			if err != nil {
				return nil, configErr(-1, e.Key, "fanout: %v", err)
			}
			rule.Values = append(rule.Values, val)
		}
		fanout = append(fanout, rule)
	}

	return NewRules(aliases, exclude, fanout)
}

// eachPair walks a mapping node in document order.
func eachPair(n *yaml.Node, group int, fn func(key string, v *yaml.Node) error) error {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return configErr(group, "", "expected a mapping at line %d", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Kind != yaml.ScalarNode {
			return configErr(group, "", "non-scalar key at line %d", k.Line)
		}
		if err := fn(k.Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func valueList(n *yaml.Node) ([]task.Value, error) {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		v, err := scalarValue(n)
		if err != nil {
			return nil, err
		}
		return []task.Value{v}, nil
	}
	vals := make([]task.Value, 0, len(n.Content))
	for _, c := range n.Content {
		v, err := scalarValue(c)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// scalarValue converts a resolved YAML scalar into a task.Value. Null maps
// to the absent value, which validation later rejects.
func scalarValue(n *yaml.Node) (task.Value, error) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return task.Value{}, fmt.Errorf("expected a scalar at line %d", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return task.Absent(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return task.Value{}, err
		}
		return task.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return task.Value{}, err
		}
		return task.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return task.Value{}, err
		}
		return task.Float(f), nil
	default:
		return task.String(n.Value), nil
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return resolve(n.Content[0])
	}
	return n
}
