package feed

import (
	"slices"

	"memopad/client"
)

// Updaters never modify the value they receive; they return a fresh copy so
// the caller's pre-mutation snapshot stays intact for rollback, and so that
// applying the same reconciliation twice converges on the same state.

func clonePages(p Pages) Pages {
	out := make(Pages, len(p))
	for i, pg := range p {
		pg.Data = slices.Clone(pg.Data)
		pg.FullData = slices.Clone(pg.FullData)
		out[i] = pg
	}
	return out
}

// restore rolls the entry back to an exact pre-mutation snapshot.
func restore(snapshot Pages) func(Pages) Pages {
	return func(Pages) Pages { return snapshot }
}

// prependMemo puts m on top of the first page and the full snapshot and
// bumps the total. When no full snapshot exists yet, one is seeded from the
// page data so the heatmap sees the new memo too.
func prependMemo(m client.Memo) func(Pages) Pages {
	return func(p Pages) Pages {
		q := clonePages(p)
		if len(q) == 0 {
			return q
		}
		first := &q[0]
		base := first.FullData
		if base == nil {
			base = first.Data
		}
		first.FullData = append([]client.Memo{m}, base...)
		first.Data = append([]client.Memo{m}, first.Data...)
		first.TotalCount++
		return q
	}
}

// replaceID swaps a temporary client id for the server-issued one wherever
// it appears, preserving position. Idempotent: once no record holds oldID
// the cache is unchanged.
func replaceID(oldID, newID string) func(Pages) Pages {
	return func(p Pages) Pages {
		q := clonePages(p)
		for i := range q {
			replaceInSlice(q[i].Data, oldID, newID)
			replaceInSlice(q[i].FullData, oldID, newID)
		}
		return q
	}
}

func replaceInSlice(memos []client.Memo, oldID, newID string) {
	for i := range memos {
		if memos[i].ID == oldID {
			memos[i].ID = newID
		}
	}
}

// applyMessage writes the edited content onto the record with the given id
// in every page and in the full snapshot.
func applyMessage(id, message string) func(Pages) Pages {
	return func(p Pages) Pages {
		q := clonePages(p)
		for i := range q {
			setMessage(q[i].Data, id, message)
			setMessage(q[i].FullData, id, message)
		}
		return q
	}
}

func setMessage(memos []client.Memo, id, message string) {
	for i := range memos {
		if memos[i].ID == id {
			memos[i].Message = message
		}
	}
}

// removeMemo drops the record from every page and decrements the cached
// total when it was present.
func removeMemo(id string) func(Pages) Pages {
	return func(p Pages) Pages {
		q := clonePages(p)
		found := false
		for i := range q {
			var removed bool
			q[i].Data, removed = dropID(q[i].Data, id)
			found = found || removed
			q[i].FullData, removed = dropID(q[i].FullData, id)
			found = found || removed
		}
		if found && len(q) > 0 {
			q[0].TotalCount--
		}
		return q
	}
}

func dropID(memos []client.Memo, id string) ([]client.Memo, bool) {
	if memos == nil {
		return nil, false
	}
	out := memos[:0]
	found := false
	for _, m := range memos {
		if m.ID == id {
			found = true
			continue
		}
		out = append(out, m)
	}
	return out, found
}
