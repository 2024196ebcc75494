package sync

import "sort"

// Diff is the outcome of one set-reconciliation pass: ids to materialize
// locally and ids whose local link or flag must be dropped.
type Diff struct {
	ToAdd    []string
	ToRemove []string
}

// Empty reports whether the pass has nothing to apply.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Reconcile computes the set difference between the local and remote id
// sets for one relation. It is a pure function with no store or network
// dependency; the caller applies the side effects.
//
// There is deliberately no version vector: "deleted remotely" and "never
// existed remotely" collapse to the same outcome, and concurrent edits from
// two devices resolve to whichever reconciliation pass runs last.
func Reconcile(local, remote []string) Diff {
	localSet := make(map[string]struct{}, len(local))
	for _, id := range local {
		localSet[id] = struct{}{}
	}
	remoteSet := make(map[string]struct{}, len(remote))
	for _, id := range remote {
		remoteSet[id] = struct{}{}
	}

	var d Diff
	for id := range remoteSet {
		if _, ok := localSet[id]; !ok {
			d.ToAdd = append(d.ToAdd, id)
		}
	}
	for id := range localSet {
		if _, ok := remoteSet[id]; !ok {
			d.ToRemove = append(d.ToRemove, id)
		}
	}

	// Deterministic order keeps passes reproducible and testable.
	sort.Strings(d.ToAdd)
	sort.Strings(d.ToRemove)
	return d
}
