// Package sweep expands a declarative parameter sweep into task records.
//
// A [Spec] holds an ordered set of default parameters and a list of groups.
// Each group is a set of axes (a key and its candidate values) whose
// Cartesian product is overlaid on the defaults. Groups are independent sweep
// axes anchored at the same baseline: their results are concatenated, never
// multiplied against each other.
//
// [Compile] validates a Spec, applies its preprocess hook once per distinct
// value, and assigns every key a canonical position: defaults first in
// declared order, then keys discovered in groups in first-seen order. Keys
// that only appear in groups get the absent default, so every record is total
// over the full key set.
//
// Usage:
//
//	spec, err := sweep.Load("sweep.yaml")
//	if err != nil {
//	    return err
//	}
//	sw, err := sweep.Compile(spec, sweep.WithDiscoveryFunc(func(key string, pos int) {
//	    log.Printf("using disabled default and position %d for %s", pos, key)
//	}))
//	if err != nil {
//	    return err
//	}
//	for rec := range sw.Records() {
//	    // ...
//	}
package sweep
