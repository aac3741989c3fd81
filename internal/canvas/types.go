package canvas

import "fmt"

// Category is the top-level kind of a node.
type Category string

const (
	CategoryAI       Category = "ai"
	CategoryResource Category = "resource"
	CategoryAction   Category = "action"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAI, CategoryResource, CategoryAction}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown node category %q", s)
}

// Port is one of the four fixed attachment points of a node.
type Port string

const (
	PortTop    Port = "top"
	PortRight  Port = "right"
	PortBottom Port = "bottom"
	PortLeft   Port = "left"
)

// Ports lists the ports clockwise starting at the top.
var Ports = []Port{PortTop, PortRight, PortBottom, PortLeft}

// ParsePort validates a raw port string.
func ParsePort(s string) (Port, error) {
	for _, p := range Ports {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown port %q", s)
}

// Node is a placed unit of workflow logic.
type Node struct {
	ID       string         `json:"id"`
	Category Category       `json:"type"`
	Subtype  string         `json:"subtype"`
	Name     string         `json:"name"`
	Position Point          `json:"position"`
	Config   map[string]any `json:"config"`
	// Connections holds the ids of every connection touching this node.
	Connections []string `json:"connections"`
}

// Connection is a directed edge between two node ports.
type Connection struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
	FromPort Port   `json:"fromPort"`
	ToPort   Port   `json:"toPort"`
}

// TempConnection is the rubber-band line shown while a connection gesture is
// in progress. It is never part of the committed graph.
type TempConnection struct {
	FromNode string `json:"fromNode"`
	FromPort Port   `json:"fromPort"`
	From     Point  `json:"from"`
	To       Point  `json:"to"`
}

// Release is the outcome of EndDrag.
type Release struct {
	NodeID string
	// Click is true when the press ended without any movement.
	Click bool
}

// clone returns a deep enough copy for callers that must not alias the
// canvas' internal maps and slices.
func (n *Node) clone() Node {
	out := *n
	out.Config = make(map[string]any, len(n.Config))
	for k, v := range n.Config {
		out.Config[k] = v
	}
	out.Connections = append([]string(nil), n.Connections...)
	return out
}
