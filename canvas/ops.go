package canvas

// Drawing operations exist only as broadcast messages; nothing here is
// ever persisted. Observers replay them onto a local bitmap that is
// rebuilt from blank on every turn boundary.

type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

type OpKind string

const (
	OpStroke OpKind = "stroke"
	OpFill   OpKind = "fill"
	OpClear  OpKind = "clear"
	// OpSnapshot carries a full bitmap restore produced by undo/redo on
	// the drawer, so observers land on the same canvas.
	OpSnapshot OpKind = "snapshot"
)

// Point coordinates are normalized to 0..1 so clients with different
// canvas resolutions replay the same geometry.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Op struct {
	Kind      OpKind  `json:"kind"`
	Tool      Tool    `json:"tool,omitempty"`
	Color     string  `json:"color,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
	Points    []Point `json:"points,omitempty"`
	Seed      *Point  `json:"seed,omitempty"`
	Pixels    []byte  `json:"pixels,omitempty"`
}
