package fleet

import (
	"sort"

	"github.com/oakmund/fleetboard/internal/parse"
)

// TickKey identifies one outstanding handover item the duty crew has
// ticked off since the document was pasted.
type TickKey struct {
	UnitCode string `json:"unit_code"`
	Item     string `json:"item"`
}

// TickSet is the set of ticked outstanding items. It is application
// state owned by the service, never by the parser: reconciliation treats
// parser output as read-only input.
type TickSet map[TickKey]struct{}

// NewTickSet creates an empty tick set
func NewTickSet() TickSet {
	return make(TickSet)
}

// Add marks an item as ticked.
func (t TickSet) Add(unitCode, item string) {
	t[TickKey{UnitCode: unitCode, Item: item}] = struct{}{}
}

// Remove clears a tick.
func (t TickSet) Remove(unitCode, item string) {
	delete(t, TickKey{UnitCode: unitCode, Item: item})
}

// Contains reports whether an item is ticked.
func (t TickSet) Contains(unitCode, item string) bool {
	_, ok := t[TickKey{UnitCode: unitCode, Item: item}]
	return ok
}

// Keys returns the ticked items in a stable order.
func (t TickSet) Keys() []TickKey {
	keys := make([]TickKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].UnitCode != keys[j].UnitCode {
			return keys[i].UnitCode < keys[j].UnitCode
		}
		return keys[i].Item < keys[j].Item
	})
	return keys
}

// ApplyTicks returns a reconciled copy of a handover in which every
// ticked outstanding item has moved to the unit's completed list. The
// input handover is not modified.
func ApplyTicks(h *parse.Handover, ticks TickSet) *parse.Handover {
	if h == nil {
		return nil
	}

	out := &parse.Handover{
		Completed:   make(map[string][]string, len(h.Completed)),
		Outstanding: make(map[string]*parse.HandoverGroup, len(h.Outstanding)),
		Extra:       make(map[parse.Category][]string, len(h.Extra)),
	}

	for code, items := range h.Completed {
		out.Completed[code] = append([]string(nil), items...)
	}
	for cat, items := range h.Extra {
		out.Extra[cat] = append([]string(nil), items...)
	}

	for code, group := range h.Outstanding {
		remaining := make([]string, 0, len(group.Items))
		for _, item := range group.Items {
			if ticks.Contains(code, item) {
				out.Completed[code] = append(out.Completed[code], item)
			} else {
				remaining = append(remaining, item)
			}
		}
		if len(remaining) > 0 {
			out.Outstanding[code] = &parse.HandoverGroup{
				UnitCode: group.UnitCode,
				Tag:      group.Tag,
				Items:    remaining,
			}
		}
	}

	return out
}
