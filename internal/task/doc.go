// Package task defines the task record queued by sweepq: an ordered list of
// named parameter values, together with the fingerprint used to detect
// duplicates and the binary codec used by the on-disk task store.
//
// A [Value] is a small tagged scalar. Besides strings, integers, floats and
// booleans it has an explicit absent variant, returned by [Absent], which marks
// a parameter that is known to the sweep but disabled for a given record. The
// absent variant is a distinct kind, so it can never be confused with a real
// value such as an empty string or zero.
//
// Records are stored in canonical key order, but their identity is the
// [Fingerprint], which sorts parameters by name. The two orders are
// deliberately independent: key positions can shift between runs as new keys
// are discovered, while fingerprints of already queued records must not.
package task
