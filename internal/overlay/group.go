package overlay

import "sync"

// Group makes sibling overlays mutually exclusive: showing one member hides
// the others first.
type Group struct {
	mu      sync.Mutex
	members []*Controller
}

// NewGroup binds the controllers into one exclusive group.
func NewGroup(members ...*Controller) *Group {
	g := &Group{}
	for _, c := range members {
		g.Add(c)
	}
	return g
}

// Add places the controller in the group.
func (g *Group) Add(c *Controller) {
	g.mu.Lock()
	g.members = append(g.members, c)
	g.mu.Unlock()
	c.mu.Lock()
	c.group = g
	c.mu.Unlock()
}

// Active returns the member that is showing or visible, if any.
func (g *Group) Active() *Controller {
	for _, c := range g.snapshot() {
		if c.Open() {
			return c
		}
	}
	return nil
}

// HideAll hides every member.
func (g *Group) HideAll() {
	for _, c := range g.snapshot() {
		c.Hide()
	}
}

func (g *Group) hideOthers(keep *Controller) {
	for _, c := range g.snapshot() {
		if c != keep {
			c.Hide()
		}
	}
}

func (g *Group) snapshot() []*Controller {
	g.mu.Lock()
	defer g.mu.Unlock()
	dup := make([]*Controller, len(g.members))
	copy(dup, g.members)
	return dup
}
