package registry

import (
	"strings"

	"github.com/modkit/modkit/module"
)

// MenuGroup is one entry of the menu cache: the modules sharing a menu path,
// weight-ordered.
type MenuGroup struct {
	Path    []string
	Handles []module.Handle
}

// MenuGroups returns the menu cache, rebuilding it if a structural change
// invalidated it. Groups appear in first-appearance order within the
// weight-ordered menu list.
func (r *Registry) MenuGroups() []MenuGroup {
	if r.menuDirty {
		r.rebuildMenuCache()
	}
	return r.menuGroups
}

func (r *Registry) rebuildMenuCache() {
	index := make(map[string]int)
	r.menuGroups = nil
	for _, h := range r.weightOrder(module.PhaseMenu) {
		meta := r.cells[h].mod.Meta()
		path := meta.MenuPath
		if len(path) == 0 {
			path = []string{meta.Name}
		}
		key := strings.Join(path, "/")
		i, ok := index[key]
		if !ok {
			i = len(r.menuGroups)
			index[key] = i
			r.menuGroups = append(r.menuGroups, MenuGroup{Path: path})
		}
		r.menuGroups[i].Handles = append(r.menuGroups[i].Handles, h)
	}
	r.menuDirty = false
}

// BeforeRender runs every module's pre-render hook once, in insertion order,
// ahead of any render phase this frame.
func (r *Registry) BeforeRender(ui module.UI) {
	for _, h := range r.order {
		c := r.cells[h]
		c.lockExclusive()
		c.mod.BeforeRender(ui)
		c.unlockExclusive()
	}
}

// RenderMenu invokes the menu callback of every menu-enabled module, walking
// the menu cache group by group.
func (r *Registry) RenderMenu(ui module.UI) {
	for _, g := range r.MenuGroups() {
		for _, h := range g.Handles {
			c := r.cells[h]
			tm := r.tracked(h)
			if tm != nil {
				tm.BeginRenderMenu()
			}
			c.lockExclusive()
			c.mod.RenderMenu(ui)
			c.unlockExclusive()
			if tm != nil {
				tm.EndRenderMenu()
			}
		}
	}
}

// RenderWindow invokes the window callback of window-enabled modules in
// weight order, plus the members of undocked draw groups, which render as
// standalone windows while detached.
func (r *Registry) RenderWindow(ui module.UI) {
	rendered := make(map[module.Handle]bool)
	render := func(h module.Handle) {
		if rendered[h] {
			return
		}
		rendered[h] = true
		c := r.cells[h]
		tm := r.tracked(h)
		if tm != nil {
			tm.BeginRenderWindow()
		}
		c.lockExclusive()
		c.mod.RenderWindow(ui)
		c.unlockExclusive()
		if tm != nil {
			tm.EndRenderWindow()
		}
	}

	for _, h := range r.weightOrder(module.PhaseWindow) {
		render(h)
	}
	_, groups := r.drawOrder()
	for _, g := range groups {
		if !r.undocked[g.Path] {
			continue
		}
		for _, h := range g.Handles {
			render(h)
		}
	}
}

// RenderDraw invokes the draw callback of draw-enabled modules: independents
// first, then the docked groups, each internally weight-ordered. Undocked
// groups are skipped here; RenderWindow picks them up.
func (r *Registry) RenderDraw(ui module.UI, fg, bg module.DrawLayer) {
	draw := func(h module.Handle) {
		c := r.cells[h]
		tm := r.tracked(h)
		if tm != nil {
			tm.BeginRenderDraw()
		}
		c.lockExclusive()
		c.mod.RenderDraw(ui, fg, bg)
		c.unlockExclusive()
		if tm != nil {
			tm.EndRenderDraw()
		}
	}

	independent, groups := r.drawOrder()
	for _, h := range independent {
		draw(h)
	}
	for _, g := range groups {
		if r.undocked[g.Path] {
			continue
		}
		for _, h := range g.Handles {
			draw(h)
		}
	}
}
