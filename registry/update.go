package registry

import "github.com/modkit/modkit/module"

// TickTarget selects which modules an update tick visits.
type TickTarget struct {
	kind     tickKind
	handle   module.Handle
	min, max float64
}

type tickKind int

const (
	tickAll tickKind = iota
	tickOne
	tickWeightRange
)

// TickAll visits every update-enabled module.
func TickAll() TickTarget {
	return TickTarget{kind: tickAll}
}

// TickOne visits a single module, if it is update-enabled.
func TickOne(h module.Handle) TickTarget {
	return TickTarget{kind: tickOne, handle: h}
}

// TickWeightRange visits update-enabled modules whose update weight falls in
// [min, max].
func TickWeightRange(min, max float64) TickTarget {
	return TickTarget{kind: tickWeightRange, min: min, max: max}
}

func (t TickTarget) selects(r *Registry, h module.Handle) bool {
	switch t.kind {
	case tickOne:
		return h == t.handle
	case tickWeightRange:
		w := r.cells[h].mod.Meta().Weight(module.PhaseUpdate)
		return w >= t.min && w <= t.max
	default:
		return true
	}
}

// Tick runs one update pass over the selected modules in dependency order:
// declared dependencies first, insertion order among independents. Each
// callback runs under an exclusive lease with the registry itself as the
// module's read view.
func (r *Registry) Tick(target TickTarget) {
	var selected []module.Handle
	for _, h := range r.updateOrder() {
		if r.cells[h].mod.Meta().Enabled(module.PhaseUpdate) && target.selects(r, h) {
			selected = append(selected, h)
		}
	}

	for _, h := range selected {
		if tm := r.tracked(h); tm != nil {
			tm.Queued()
		}
	}

	for _, h := range selected {
		c := r.cells[h]
		tm := r.tracked(h)
		if tm != nil {
			tm.BeginUpdate()
		}
		c.lockExclusive()
		c.mod.Update(r)
		c.unlockExclusive()
		if tm != nil {
			tm.EndUpdate()
		}
	}

	for _, h := range selected {
		if tm := r.tracked(h); tm != nil {
			tm.Stasis()
		}
	}
	if r.tracker != nil {
		r.tracker.FlattenIfNeeded()
	}
}
