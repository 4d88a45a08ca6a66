package sweep

import (
	"testing"

	"github.com/Iron-Ham/sweepq/internal/task"
)

func TestBuildOrder_DefaultsThenDiscovered(t *testing.T) {
	spec := &Spec{
		Defaults: []task.Param{task.P("b", 1), task.P("a", 2)},
		Groups: []Group{
			{{Key: "a", Values: []task.Value{task.Int(3)}}, {Key: "z", Values: []task.Value{task.Int(1)}}},
			{{Key: "y", Values: []task.Value{task.String("x")}}, {Key: "z", Values: []task.Value{task.Int(2)}}},
		},
	}

	var discovered []string
	defaults, order := BuildOrder(spec, func(key string, pos int) {
		discovered = append(discovered, key)
		if want := len(discovered) + 1; pos != want {
			t.Errorf("discovered %s at %d, want %d", key, pos, want)
		}
	})

	want := map[string]int{"b": 0, "a": 1, "z": 2, "y": 3}
	for k, pos := range want {
		if got, ok := order.Position(k); !ok || got != pos {
			t.Errorf("position(%s) = %d, %v; want %d", k, got, ok, pos)
		}
	}
	if len(discovered) != 2 || discovered[0] != "z" || discovered[1] != "y" {
		t.Errorf("discovered = %v, want [z y]", discovered)
	}

	if len(defaults) != 4 {
		t.Fatalf("defaults len = %d, want 4", len(defaults))
	}
	if defaults[0] != task.P("b", 1) || defaults[1] != task.P("a", 2) {
		t.Errorf("declared defaults changed: %v", defaults[:2])
	}
	for _, p := range defaults[2:] {
		if !p.Value.IsAbsent() {
			t.Errorf("discovered key %s default = %v, want absent", p.Name, p.Value)
		}
	}

	keys := order.Keys()
	if len(keys) != 4 || keys[0] != "b" || keys[3] != "y" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestBuildOrder_NilCallback(t *testing.T) {
	spec := &Spec{Groups: []Group{{{Key: "k", Values: []task.Value{task.Int(1)}}}}}
	defaults, order := BuildOrder(spec, nil)
	if len(defaults) != 1 || order["k"] != 0 {
		t.Errorf("defaults=%v order=%v", defaults, order)
	}
}

func TestKeyOrder_Sort(t *testing.T) {
	order := KeyOrder{"x": 0, "a": 1}
	r := task.Record{task.P("zz", 1), task.P("a", 2), task.P("m", 3), task.P("x", 4)}
	order.Sort(r)

	got := r.Names()
	want := []string{"x", "a", "m", "zz"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sort() = %v, want %v", got, want)
		}
	}
}
