package sweep

import (
	"slices"
	"testing"

	"github.com/Iron-Ham/sweepq/internal/task"
)

func ints(vs ...int64) []task.Value {
	out := make([]task.Value, len(vs))
	for i, v := range vs {
		out[i] = task.Int(v)
	}
	return out
}

func collect(t *testing.T, spec *Spec) []task.Record {
	t.Helper()
	sw, err := Compile(spec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return slices.Collect(sw.Records())
}

func formats(recs []task.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Format()
	}
	return out
}

func TestExpand_GroupsAreUnionNotProduct(t *testing.T) {
	spec := &Spec{
		Defaults: []task.Param{task.P("a", 1), task.P("b", 2)},
		Groups: []Group{
			{{Key: "a", Values: ints(1, 3)}},
			{{Key: "b", Values: ints(2, 4)}},
		},
	}

	got := formats(collect(t, spec))
	want := []string{"a=1 b=2", "a=3 b=2", "a=1 b=2", "a=1 b=4"}
	if !slices.Equal(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}

	// After dedup the distinct set is the three anchored variants.
	seen := make(task.FingerprintSet)
	var distinct []string
	for _, r := range collect(t, spec) {
		if seen.Add(r) {
			distinct = append(distinct, r.Format())
		}
	}
	if !slices.Equal(distinct, []string{"a=1 b=2", "a=3 b=2", "a=1 b=4"}) {
		t.Errorf("distinct = %v", distinct)
	}
	if slices.Contains(got, "a=3 b=4") {
		t.Error("groups must not be producted against each other")
	}
}

func TestExpand_CartesianWithinGroup(t *testing.T) {
	spec := &Spec{
		Defaults: []task.Param{task.P("a", 0), task.P("b", 0), task.P("c", 9)},
		Groups: []Group{
			{{Key: "b", Values: ints(1, 2)}, {Key: "a", Values: ints(5, 6, 7)}},
		},
	}

	got := formats(collect(t, spec))
	want := []string{
		"a=5 b=1 c=9", "a=6 b=1 c=9", "a=7 b=1 c=9",
		"a=5 b=2 c=9", "a=6 b=2 c=9", "a=7 b=2 c=9",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}

func TestExpand_DiscoveredKeyGetsAbsentDefault(t *testing.T) {
	spec := &Spec{
		Defaults: []task.Param{task.P("a", 1)},
		Groups: []Group{
			{{Key: "a", Values: ints(2)}},
			{{Key: "extra", Values: []task.Value{task.String("on")}}},
		},
	}

	recs := collect(t, spec)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	v, ok := recs[0].Get("extra")
	if !ok || !v.IsAbsent() {
		t.Errorf("extra in first group = %v, %v; want absent", v, ok)
	}
	v, _ = recs[1].Get("extra")
	if v != task.String("on") {
		t.Errorf("extra in second group = %v, want on", v)
	}
	for _, r := range recs {
		if len(r) != 2 {
			t.Errorf("record %s is not total over the key set", r.Format())
		}
	}
}

func TestExpand_HookDropsAndFansOut(t *testing.T) {
	hook := func(r task.Record) []task.Record {
		v, _ := r.Get("a")
		switch v.IntValue() {
		case 1:
			return nil
		case 2:
			return []task.Record{r.With("part", task.Int(0)), r.With("part", task.Int(1))}
		default:
			return []task.Record{r}
		}
	}
	spec := &Spec{
		Defaults: []task.Param{task.P("a", 0)},
		Groups:   []Group{{{Key: "a", Values: ints(1, 2, 3)}}},
		Expand:   hook,
	}

	got := formats(collect(t, spec))
	want := []string{"a=2 part=0", "a=2 part=1", "a=3"}
	if !slices.Equal(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}

func TestExpand_EmptyGroupYieldsDefaults(t *testing.T) {
	spec := &Spec{
		Defaults: []task.Param{task.P("a", 1)},
		Groups:   []Group{{}},
	}
	got := formats(collect(t, spec))
	if !slices.Equal(got, []string{"a=1"}) {
		t.Errorf("Records() = %v", got)
	}
}

func TestExpand_StopsEarlyAndRestarts(t *testing.T) {
	calls := 0
	spec := &Spec{
		Defaults: []task.Param{task.P("a", 0)},
		Groups:   []Group{{{Key: "a", Values: ints(1, 2, 3, 4)}}},
		Expand: func(r task.Record) []task.Record {
			calls++
			return []task.Record{r}
		},
	}
	sw, err := Compile(spec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	n := 0
	for range sw.Records() {
		n++
		if n == 2 {
			break
		}
	}
	if calls != 2 {
		t.Errorf("hook calls after early stop = %d, want 2", calls)
	}

	if all := slices.Collect(sw.Records()); len(all) != 4 {
		t.Errorf("second pass yielded %d records, want 4", len(all))
	}
}

func TestChain(t *testing.T) {
	double := func(r task.Record) []task.Record { return []task.Record{r, r} }
	drop := func(task.Record) []task.Record { return nil }

	if got := Chain(double, double)(task.Record{}); len(got) != 4 {
		t.Errorf("Chain(double, double) = %d records, want 4", len(got))
	}
	if got := Chain(double, drop, double)(task.Record{}); got != nil {
		t.Errorf("Chain with drop = %v, want nil", got)
	}
	if got := Chain(nil, Identity)(task.Record{}); len(got) != 1 {
		t.Errorf("Chain(nil, Identity) = %d records, want 1", len(got))
	}
}
