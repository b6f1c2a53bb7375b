package slideshow

// favoriteOverrides layers unconfirmed favorite toggles over the item list
// loaded from the backend. An override is dropped when a load shows the
// server agreeing with it, when its write fails, or when a load issued
// after the write was confirmed disagrees (server truth wins).
type favoriteOverrides struct {
	next uint64
	m    map[string]favoriteOverride
}

type favoriteOverride struct {
	value bool
	token uint64
	// confirmedSeq is the first items load that must reflect the write;
	// zero while the write is still in flight.
	confirmedSeq uint64
}

func (o *favoriteOverrides) set(itemID string, value bool) uint64 {
	if o.m == nil {
		o.m = make(map[string]favoriteOverride)
	}
	o.next++
	o.m[itemID] = favoriteOverride{value: value, token: o.next}
	return o.next
}

// rollback drops the override only if no newer toggle replaced it.
func (o *favoriteOverrides) rollback(itemID string, token uint64) bool {
	ov, ok := o.m[itemID]
	if !ok || ov.token != token {
		return false
	}
	delete(o.m, itemID)
	return true
}

func (o *favoriteOverrides) confirm(itemID string, token, seq uint64) {
	ov, ok := o.m[itemID]
	if !ok || ov.token != token {
		return
	}
	ov.confirmedSeq = seq
	o.m[itemID] = ov
}

func (o *favoriteOverrides) reconcile(items []Item, seq uint64) {
	if len(o.m) == 0 {
		return
	}
	for _, it := range items {
		ov, ok := o.m[it.ID]
		if !ok {
			continue
		}
		if it.Favorite == ov.value || (ov.confirmedSeq != 0 && seq >= ov.confirmedSeq) {
			delete(o.m, it.ID)
		}
	}
}

func (o *favoriteOverrides) apply(items []Item) []Item {
	if len(o.m) == 0 {
		return items
	}
	out := make([]Item, len(items))
	copy(out, items)
	for i := range out {
		if ov, ok := o.m[out[i].ID]; ok {
			out[i].Favorite = ov.value
		}
	}
	return out
}

func (o *favoriteOverrides) size() int { return len(o.m) }
