package reconcile

import (
	"fmt"
	"sort"
)

// Build diffs the current entries against a fresh record listing.
//
// For each entry, matched by key:
//   - no record: resolve,
//   - only invalid records: resolve,
//   - exactly one valid record: update from it,
//   - several valid records: corrupt, left untouched.
//
// The first valid record, in listing order, of a key with no entry is then
// planned for creation. Later valid records for the same key are corrupt.
// An empty listing with a non-empty table short-circuits to ClearAll.
func Build[R any](entries []Entry, records []R, src Source[R]) *Plan[R] {
	ordered := append([]Entry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	plan := &Plan[R]{
		Summary: Summary{Entries: len(ordered), Records: len(records)},
	}

	if len(records) == 0 {
		if len(ordered) == 0 {
			return plan
		}
		plan.ClearAll = true
		for _, e := range ordered {
			plan.add(Action[R]{Type: ActionResolve, EntryID: e.ID, Key: e.Key, Reason: "listing is empty"})
		}
		return plan
	}

	byKey := indexRecords(records, src)

	mirrored := make(map[string]struct{}, len(ordered))
	for _, e := range ordered {
		mirrored[e.Key] = struct{}{}

		matches := byKey[e.Key]
		if len(matches) == 0 {
			plan.add(Action[R]{Type: ActionResolve, EntryID: e.ID, Key: e.Key, Reason: "no record"})
			continue
		}

		valid := filterValid(matches, src)
		switch len(valid) {
		case 0:
			plan.add(Action[R]{Type: ActionResolve, EntryID: e.ID, Key: e.Key,
				Reason: fmt.Sprintf("%d record(s), none valid", len(matches))})
		case 1:
			plan.add(Action[R]{Type: ActionUpdate, EntryID: e.ID, Key: e.Key, Record: valid[0], Reason: "single valid record"})
		default:
			plan.add(Action[R]{Type: ActionCorrupt, EntryID: e.ID, Key: e.Key,
				Reason: fmt.Sprintf("%d valid records for one location", len(valid))})
		}
	}

	created := make(map[string]struct{})
	for _, r := range records {
		if !src.Valid(r) {
			continue
		}
		key := src.Key(r)
		if _, ok := mirrored[key]; ok {
			continue
		}
		if _, ok := created[key]; ok {
			plan.add(Action[R]{Type: ActionCorrupt, Key: key, Record: r,
				Reason: fmt.Sprintf("%d valid records for one location", len(filterValid(byKey[key], src)))})
			continue
		}
		created[key] = struct{}{}
		plan.add(Action[R]{Type: ActionCreate, Key: key, Record: r, Reason: "valid record without entry"})
	}

	return plan
}

func (p *Plan[R]) add(a Action[R]) {
	p.Actions = append(p.Actions, a)
	switch a.Type {
	case ActionResolve:
		p.Summary.Resolve++
	case ActionUpdate:
		p.Summary.Update++
	case ActionCreate:
		p.Summary.Create++
	case ActionCorrupt:
		p.Summary.Corrupt++
	}
}

func indexRecords[R any](records []R, src Source[R]) map[string][]R {
	idx := make(map[string][]R, len(records))
	for _, r := range records {
		k := src.Key(r)
		idx[k] = append(idx[k], r)
	}
	return idx
}

func filterValid[R any](records []R, src Source[R]) []R {
	var out []R
	for _, r := range records {
		if src.Valid(r) {
			out = append(out, r)
		}
	}
	return out
}
