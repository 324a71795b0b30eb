package render

import (
	"slices"
	"sync"
)

// Scene is an in-memory element tree implementing Surface. Mutations of attached elements are
// published as Ops after the scene lock is released, in the order they were applied.
type Scene struct {
	mu    sync.Mutex
	pubMu sync.Mutex
	pub   Publisher
	meas  Measurer
	roots []*node
	byID  map[string]*node
}

// NewScene returns an empty scene. pub may be nil.
func NewScene(pub Publisher, m Measurer) *Scene {
	return &Scene{pub: pub, meas: m, byID: make(map[string]*node)}
}

// SetPublisher replaces the publisher. Mutations applied before the call are not replayed.
func (s *Scene) SetPublisher(pub Publisher) {
	s.pubMu.Lock()
	s.pub = pub
	s.pubMu.Unlock()
}

// Measurer returns the text measurer used for RenderedHeight.
func (s *Scene) Measurer() Measurer { return s.meas }

// mutate runs fn under the scene lock and publishes the ops it returns. The publish lock is
// taken before the scene lock is released so ops reach the publisher in apply order.
func (s *Scene) mutate(fn func() []Op) {
	s.mu.Lock()
	ops := fn()
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()
	if s.pub == nil {
		return
	}
	for _, op := range ops {
		s.pub.Publish(op)
	}
}

func (s *Scene) Lookup(id string) (Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return n, true
}

func (s *Scene) New(id string) Element {
	return &node{scene: s, id: id, classes: map[string]bool{}}
}

func (s *Scene) Append(parent, child Element) {
	c := s.own(child)
	var p *node
	if parent != nil {
		p = s.own(parent)
	}
	s.mutate(func() []Op {
		s.detach(c)
		c.parent = p
		if p == nil {
			s.roots = append(s.roots, c)
		} else {
			p.children = append(p.children, c)
		}
		return s.attach(c, "")
	})
}

func (s *Scene) InsertAfter(ref, child Element) {
	r, c := s.own(ref), s.own(child)
	s.mutate(func() []Op {
		s.detach(c)
		c.parent = r.parent
		sib := s.siblings(r)
		i := slices.Index(*sib, r)
		*sib = slices.Insert(*sib, i+1, c)
		return s.attach(c, r.id)
	})
}

func (s *Scene) NextSibling(el Element) (Element, bool) {
	n := s.own(el)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !n.attached {
		return nil, false
	}
	sib := *s.siblings(n)
	i := slices.Index(sib, n)
	if i < 0 || i+1 >= len(sib) {
		return nil, false
	}
	return sib[i+1], true
}

func (s *Scene) Remove(el Element) {
	n := s.own(el)
	s.mutate(func() []Op {
		if !n.attached {
			return nil
		}
		s.detach(n)
		return []Op{{Op: OpRemove, ID: n.id}}
	})
}

// Snapshot returns the state of all attached top-level elements and their subtrees.
func (s *Scene) Snapshot() []NodeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]NodeState, 0, len(s.roots))
	for _, r := range s.roots {
		out = append(out, r.state())
	}
	return out
}

func (s *Scene) own(el Element) *node {
	n, ok := el.(*node)
	if !ok || n.scene != s {
		panic("render: element does not belong to this scene")
	}
	return n
}

func (s *Scene) siblings(n *node) *[]*node {
	if n.parent == nil {
		return &s.roots
	}
	return &n.parent.children
}

// attach marks the subtree as attached, indexes it and returns its create op.
func (s *Scene) attach(n *node, after string) []Op {
	var walk func(*node)
	walk = func(x *node) {
		x.attached = true
		s.byID[x.id] = x
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(n)
	st := n.state()
	op := Op{Op: OpCreate, ID: n.id, After: after, Node: &st}
	if n.parent != nil {
		op.Parent = n.parent.id
	}
	return []Op{op}
}

func (s *Scene) detach(n *node) {
	if !n.attached {
		return
	}
	sib := s.siblings(n)
	if i := slices.Index(*sib, n); i >= 0 {
		*sib = slices.Delete(*sib, i, i+1)
	}
	var walk func(*node)
	walk = func(x *node) {
		x.attached = false
		if s.byID[x.id] == x {
			delete(s.byID, x.id)
		}
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(n)
	n.parent = nil
}

type node struct {
	scene *Scene

	id       string
	parent   *node
	children []*node
	attached bool

	w, h     float64
	x, y     float64
	fixed    bool
	text     string
	bg       Background
	fontSize float64
	classes  map[string]bool
}

func (n *node) state() NodeState {
	st := NodeState{
		ID: n.id, Text: n.text,
		W: n.w, H: n.h, X: n.x, Y: n.y, Fixed: n.fixed,
		FontSize: n.fontSize, Background: n.bg,
	}
	for c, on := range n.classes {
		if on {
			st.Classes = append(st.Classes, c)
		}
	}
	slices.Sort(st.Classes)
	for _, c := range n.children {
		st.Children = append(st.Children, c.state())
	}
	return st
}

// set applies fn and, for attached nodes, returns a set op for field.
func (n *node) set(field string, fn func() any) {
	n.scene.mutate(func() []Op {
		v := fn()
		if !n.attached {
			return nil
		}
		return []Op{{Op: OpSet, ID: n.id, Field: field, Value: v}}
	})
}

func (n *node) ID() string { return n.id }

func (n *node) Size() (float64, float64) {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.w, n.h
}

func (n *node) SetSize(w, h float64) {
	n.set(FieldSize, func() any {
		n.w, n.h = w, h
		return Size{W: w, H: h}
	})
}

func (n *node) Position() (float64, float64) {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.x, n.y
}

func (n *node) SetPosition(x, y float64) {
	n.set(FieldPosition, func() any {
		n.x, n.y, n.fixed = x, y, true
		return Point{X: x, Y: y}
	})
}

func (n *node) Text() string {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.text
}

func (n *node) SetText(text string) {
	n.set(FieldText, func() any {
		n.text = text
		return text
	})
}

func (n *node) Background() Background {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.bg
}

func (n *node) SetBackground(bg Background) {
	n.set(FieldBackground, func() any {
		n.bg = bg
		return bg
	})
}

func (n *node) FontSize() float64 {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.fontSize
}

func (n *node) SetFontSize(px float64) {
	n.set(FieldFontSize, func() any {
		n.fontSize = px
		return px
	})
}

func (n *node) AddClass(name string)    { n.class(name, true) }
func (n *node) RemoveClass(name string) { n.class(name, false) }

func (n *node) class(name string, on bool) {
	n.scene.mutate(func() []Op {
		if n.classes[name] == on {
			return nil
		}
		if on {
			n.classes[name] = true
		} else {
			delete(n.classes, name)
		}
		if !n.attached {
			return nil
		}
		return []Op{{Op: OpClass, ID: n.id, Class: name, On: on}}
	})
}

func (n *node) HasClass(name string) bool {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.classes[name]
}

func (n *node) Children() []Element {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	out := make([]Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *node) RenderedHeight() float64 {
	n.scene.mu.Lock()
	defer n.scene.mu.Unlock()
	return n.scene.meas.Height(n.text, n.w, n.fontSize)
}
