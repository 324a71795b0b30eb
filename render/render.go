// Package render defines the element and surface contract the overlay effects draw on, and an
// in-memory Scene that implements it and streams every mutation to connected overlay clients.
package render

// Background is what an element paints behind its content. Image takes precedence over Color
// on the client; an image background is sized and offset so cells can show a crop of it.
type Background struct {
	Color  string  `json:"color,omitempty"`
	Image  string  `json:"image,omitempty"`
	SizeW  float64 `json:"size_w,omitempty"`
	SizeH  float64 `json:"size_h,omitempty"`
	PosX   float64 `json:"pos_x,omitempty"`
	PosY   float64 `json:"pos_y,omitempty"`
	Repeat bool    `json:"repeat,omitempty"`
}

// Element is a single node of the overlay.
type Element interface {
	ID() string

	Size() (w, h float64)
	SetSize(w, h float64)
	// Position is the fixed position of the element; zero for flow elements.
	Position() (x, y float64)
	SetPosition(x, y float64)

	Text() string
	SetText(text string)

	Background() Background
	SetBackground(bg Background)

	FontSize() float64
	SetFontSize(px float64)

	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool

	Children() []Element
	// RenderedHeight is the height the current text occupies at the current width and font size.
	RenderedHeight() float64
}

// Surface creates, attaches and finds elements.
type Surface interface {
	Lookup(id string) (Element, bool)
	// New returns a detached element. It becomes visible once appended or inserted.
	New(id string) Element
	// Append attaches child as the last child of parent, or as a top-level element when parent is nil.
	Append(parent, child Element)
	InsertAfter(ref, child Element)
	NextSibling(el Element) (Element, bool)
	Remove(el Element)
}

// Publisher receives scene mutations in the order they were applied.
type Publisher interface {
	Publish(op Op)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(op Op)

func (f PublisherFunc) Publish(op Op) { f(op) }
