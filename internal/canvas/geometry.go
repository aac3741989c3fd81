package canvas

import "math"

const (
	// PortDistance is the distance from a node centre to each of its ports.
	PortDistance = 64.0
	// PortHitRadius is how close the pointer must be to a port anchor.
	PortHitRadius = 10.0
	// NodeHalfExtent is half the side of a node card's hit box.
	NodeHalfExtent = 56.0
	// EdgeMargin keeps dragged nodes fully visible inside the canvas.
	EdgeMargin = 50.0
)

// DefaultPosition is where AddNode places new nodes.
var DefaultPosition = Point{X: 300, Y: 200}

// Point is a canvas coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is the canvas extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PortOffset returns the offset of a port anchor from the node centre.
func PortOffset(port Port) Point {
	switch port {
	case PortTop:
		return Point{X: 0, Y: -PortDistance}
	case PortRight:
		return Point{X: PortDistance, Y: 0}
	case PortBottom:
		return Point{X: 0, Y: PortDistance}
	case PortLeft:
		return Point{X: -PortDistance, Y: 0}
	}
	return Point{}
}

// PortPosition resolves the absolute anchor of a node's port from the node's
// current position.
func PortPosition(n Node, port Port) Point {
	return n.Position.Add(PortOffset(port))
}

// Clamp keeps p at least EdgeMargin away from every canvas edge. On canvases
// too small to honour both margins the lower bound wins.
func (s Size) Clamp(p Point) Point {
	return Point{
		X: math.Max(EdgeMargin, math.Min(s.Width-EdgeMargin, p.X)),
		Y: math.Max(EdgeMargin, math.Min(s.Height-EdgeMargin, p.Y)),
	}
}

// HitKind classifies what lies under a point.
type HitKind int

const (
	HitNone HitKind = iota
	HitNode
	HitPort
)

func (k HitKind) String() string {
	switch k {
	case HitNode:
		return "node"
	case HitPort:
		return "port"
	default:
		return "none"
	}
}

// Hit is the result of HitTest.
type Hit struct {
	Kind   HitKind
	NodeID string
	Port   Port
}

func nearPort(n Node, port Port, p Point) bool {
	a := PortPosition(n, port)
	return math.Hypot(p.X-a.X, p.Y-a.Y) <= PortHitRadius
}

func insideBody(n Node, p Point) bool {
	return math.Abs(p.X-n.Position.X) <= NodeHalfExtent && math.Abs(p.Y-n.Position.Y) <= NodeHalfExtent
}
