package registry

import (
	"sort"
	"strings"

	"github.com/modkit/modkit/module"
)

// updateOrder computes the dependency-respecting update order: a depth-first
// visit over all handles in insertion order, visiting a handle's declared
// dependencies before the handle itself. Weight plays no part here; insertion
// order governs ties among independent modules. The visited set guards
// against re-visits, so even a cycle that slipped past registration yields a
// stable partial order instead of recursing forever.
func (r *Registry) updateOrder() []module.Handle {
	visited := make(map[module.Handle]bool, len(r.order))
	out := make([]module.Handle, 0, len(r.order))

	var visit func(h module.Handle)
	visit = func(h module.Handle) {
		if visited[h] {
			return
		}
		c, ok := r.cells[h]
		if !ok {
			return
		}
		visited[h] = true
		for _, dep := range c.mod.UpdateDependencies() {
			visit(dep)
		}
		out = append(out, h)
	}

	for _, h := range r.order {
		visit(h)
	}
	return out
}

// findCycle runs a three-color DFS over the declared dependency graph and
// returns a handle on a cycle, or NoHandle. Called at registration time.
func (r *Registry) findCycle() module.Handle {
	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)
	color := make(map[module.Handle]int, len(r.order))

	var visit func(h module.Handle) module.Handle
	visit = func(h module.Handle) module.Handle {
		c, ok := r.cells[h]
		if !ok {
			return module.NoHandle
		}
		color[h] = gray
		for _, dep := range c.mod.UpdateDependencies() {
			switch color[dep] {
			case gray:
				return dep
			case white:
				if bad := visit(dep); bad != module.NoHandle {
					return bad
				}
			}
		}
		color[h] = black
		return module.NoHandle
	}

	for _, h := range r.order {
		if color[h] == white {
			if bad := visit(h); bad != module.NoHandle {
				return bad
			}
		}
	}
	return module.NoHandle
}

// weightOrder returns the handles enabled for the given phase, highest weight
// first, ties kept in insertion order.
func (r *Registry) weightOrder(p module.Phase) []module.Handle {
	var out []module.Handle
	for _, h := range r.order {
		if r.cells[h].mod.Meta().Enabled(p) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.cells[out[i]].mod.Meta().Weight(p) > r.cells[out[j]].mod.Meta().Weight(p)
	})
	return out
}

// drawGroupKey joins a module's draw-group path; empty means independent.
func drawGroupKey(meta *module.Metadata) string {
	return strings.Join(meta.DrawGroup, "/")
}

// drawOrder partitions the weight-ordered draw modules into independents and
// named groups. Groups keep their first-appearance order within the weighted
// list; members stay weight-ordered inside each group.
func (r *Registry) drawOrder() (independent []module.Handle, groups []drawGroup) {
	index := make(map[string]int)
	for _, h := range r.weightOrder(module.PhaseDraw) {
		key := drawGroupKey(r.cells[h].mod.Meta())
		if key == "" {
			independent = append(independent, h)
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, drawGroup{Path: key})
		}
		groups[i].Handles = append(groups[i].Handles, h)
	}
	return independent, groups
}

type drawGroup struct {
	Path    string
	Handles []module.Handle
}
