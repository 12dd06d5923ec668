package shimbuild

import (
	"sort"
)

// ReasonChange records a module kept by both results for different reasons.
type ReasonChange struct {
	// ID is the module identifier.
	ID string `json:"id"`

	// Old is the reason in the old result.
	Old Reason `json:"old"`

	// New is the reason in the new result.
	New Reason `json:"new"`
}

// ResultDiff describes the differences between two resolution results.
//
// This is useful for:
//   - Checking what moving a browser baseline adds or removes
//   - Auditing compat data updates before shipping a bundle
//   - CI checks that a bundle only shrinks when targets are raised
//
// Example usage:
//
//	old, _ := resolver.Resolve(ctx, shimbuild.Request{Targets: map[string]string{"chrome": "80"}})
//	new, _ := resolver.Resolve(ctx, shimbuild.Request{Targets: map[string]string{"chrome": "100"}})
//	diff := shimbuild.DiffResults(old, new)
//	fmt.Printf("%d added, %d removed\n", len(diff.Added), len(diff.Removed))
type ResultDiff struct {
	// Added contains modules present in new but not in old, in new's order.
	Added []string `json:"added,omitempty"`

	// Removed contains modules present in old but not in new, in old's order.
	Removed []string `json:"removed,omitempty"`

	// Reasons contains modules whose reason changed, sorted by ID.
	Reasons []ReasonChange `json:"reasons,omitempty"`
}

// IsEmpty returns true if both results hold the same modules for the same
// reasons.
func (d *ResultDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Reasons) == 0
}

// TotalChanges returns the total number of changes (added + removed + reasons).
func (d *ResultDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Reasons)
}

// IsSubset reports whether the new result drops modules without adding
// any, which is what raising every target version should produce.
func (d *ResultDiff) IsSubset() bool {
	return len(d.Added) == 0
}

// DiffResults computes the difference between two resolution results.
// A nil result is treated as empty.
func DiffResults(old, new *Result) *ResultDiff {
	diff := &ResultDiff{}

	oldModules := reasonsOf(old)
	newModules := reasonsOf(new)

	if new != nil {
		for _, id := range new.Modules {
			oldReason, existedBefore := oldModules[id]
			if !existedBefore {
				diff.Added = append(diff.Added, id)
			} else if newReason := newModules[id]; oldReason != newReason {
				diff.Reasons = append(diff.Reasons, ReasonChange{ID: id, Old: oldReason, New: newReason})
			}
		}
	}
	if old != nil {
		for _, id := range old.Modules {
			if _, existsNow := newModules[id]; !existsNow {
				diff.Removed = append(diff.Removed, id)
			}
		}
	}

	sort.Slice(diff.Reasons, func(i, j int) bool {
		return diff.Reasons[i].ID < diff.Reasons[j].ID
	})
	return diff
}

func reasonsOf(r *Result) map[string]Reason {
	out := make(map[string]Reason)
	if r == nil {
		return out
	}
	for _, id := range r.Modules {
		out[id] = r.Reasons[id]
	}
	return out
}
