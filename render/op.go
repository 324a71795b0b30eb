package render

// Op types.
const (
	OpCreate = "create"
	OpSet    = "set"
	OpClass  = "class"
	OpRemove = "remove"
)

// Fields carried by OpSet.
const (
	FieldText       = "text"
	FieldSize       = "size"
	FieldPosition   = "position"
	FieldBackground = "background"
	FieldFontSize   = "font_size"
)

// Op is one scene mutation as sent to overlay clients. A create for an id the client already
// has replaces that node.
type Op struct {
	Op     string     `json:"op"`
	ID     string     `json:"id"`
	Parent string     `json:"parent,omitempty"`
	After  string     `json:"after,omitempty"`
	Node   *NodeState `json:"node,omitempty"`
	Field  string     `json:"field,omitempty"`
	Value  any        `json:"value,omitempty"`
	Class  string     `json:"class,omitempty"`
	On     bool       `json:"on,omitempty"`
}

// NodeState is the full state of an element and its subtree.
type NodeState struct {
	ID         string      `json:"id"`
	Text       string      `json:"text,omitempty"`
	W          float64     `json:"w,omitempty"`
	H          float64     `json:"h,omitempty"`
	X          float64     `json:"x,omitempty"`
	Y          float64     `json:"y,omitempty"`
	Fixed      bool        `json:"fixed,omitempty"`
	FontSize   float64     `json:"font_size,omitempty"`
	Background Background  `json:"background"`
	Classes    []string    `json:"classes,omitempty"`
	Children   []NodeState `json:"children,omitempty"`
}

// Size is the value of a FieldSize op.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is the value of a FieldPosition op.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
