package canvas

import (
	"fmt"
	"log/slog"
)

// Catalog resolves display metadata for a node type. It is satisfied by
// catalog.Catalog.
type Catalog interface {
	DisplayName(category Category, subtype string) (string, bool)
}

// Canvas owns all nodes and connections of one workflow-editing session.
type Canvas struct {
	size    Size
	catalog Catalog
	logger  *slog.Logger

	nodes       []*Node
	index       map[string]*Node
	connections []Connection
	connIDs     map[string]struct{}

	state interaction
	temp  *TempConnection

	seq int
}

// Option customizes a Canvas at construction.
type Option func(*Canvas)

// WithLogger sets the logger used for debug tracing of committed mutations.
func WithLogger(l *slog.Logger) Option {
	return func(c *Canvas) { c.logger = l }
}

// New creates an empty canvas of the given size.
func New(size Size, catalog Catalog, opts ...Option) *Canvas {
	c := &Canvas{
		size:    size,
		catalog: catalog,
		logger:  slog.Default(),
		index:   make(map[string]*Node),
		connIDs: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the canvas bounds.
func (c *Canvas) Size() Size { return c.size }

// Resize changes the canvas bounds and re-clamps every node into them.
func (c *Canvas) Resize(size Size) {
	c.size = size
	for _, n := range c.nodes {
		n.Position = size.Clamp(n.Position)
	}
}

// AddNode places a new node of the given catalog type at DefaultPosition,
// clamped to the canvas bounds.
func (c *Canvas) AddNode(category Category, subtype string) (Node, error) {
	name, ok := c.catalog.DisplayName(category, subtype)
	if !ok {
		return Node{}, fmt.Errorf("no catalog entry for %s/%s", category, subtype)
	}
	n := &Node{
		ID:       c.nextID("node", nil),
		Category: category,
		Subtype:  subtype,
		Name:     name,
		Position: c.size.Clamp(DefaultPosition),
		Config:   map[string]any{},
	}
	c.insert(n)
	c.logger.Debug("Node added.", "node", n.ID, "category", category, "subtype", subtype)
	return n.clone(), nil
}

// Node returns a copy of the node with the given id.
func (c *Canvas) Node(id string) (Node, bool) {
	n, ok := c.index[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (c *Canvas) Nodes() []Node {
	out := make([]Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		out = append(out, n.clone())
	}
	return out
}

// Connections returns all committed connections in creation order.
func (c *Canvas) Connections() []Connection {
	return append([]Connection(nil), c.connections...)
}

// TempConnection returns the in-progress rubber-band line, if any.
func (c *Canvas) TempConnection() (TempConnection, bool) {
	if c.temp == nil {
		return TempConnection{}, false
	}
	return *c.temp, true
}

// ApplyConfig merges values into the node's configuration. The canvas does
// not interpret the contents.
func (c *Canvas) ApplyConfig(nodeID string, values map[string]any) bool {
	n, ok := c.index[nodeID]
	if !ok {
		return false
	}
	for k, v := range values {
		n.Config[k] = v
	}
	c.logger.Debug("Node configuration merged.", "node", nodeID, "keys", len(values))
	return true
}

// Restore replaces the graph with previously saved nodes and connections and
// resets any interaction in progress. Connections whose endpoints are missing
// or equal are dropped; positions are clamped to the current bounds.
func (c *Canvas) Restore(nodes []Node, connections []Connection) {
	c.nodes = nil
	c.index = make(map[string]*Node, len(nodes))
	c.connections = nil
	c.connIDs = make(map[string]struct{}, len(connections))
	c.reset()

	// Generated ids must not collide with ids that appear later in nodes.
	explicit := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.ID != "" {
			explicit[n.ID] = struct{}{}
		}
	}
	for i := range nodes {
		n := nodes[i].clone()
		if n.ID == "" {
			n.ID = c.nextID("node", explicit)
		}
		if _, dup := c.index[n.ID]; dup {
			continue
		}
		n.Position = c.size.Clamp(n.Position)
		n.Connections = nil
		c.insert(&n)
	}
	for _, conn := range connections {
		if conn.FromNode == conn.ToNode {
			continue
		}
		if _, ok := c.index[conn.FromNode]; !ok {
			continue
		}
		if _, ok := c.index[conn.ToNode]; !ok {
			continue
		}
		if _, dup := c.connIDs[conn.ID]; conn.ID == "" || dup {
			conn.ID = c.connectionID(conn.FromNode, conn.ToNode)
		}
		c.commit(conn)
	}
	c.logger.Debug("Canvas restored.", "nodes", len(c.nodes), "connections", len(c.connections))
}

// AvailableData lists the outputs each node exposes to downstream nodes.
func (c *Canvas) AvailableData() []DataSource {
	out := make([]DataSource, 0, len(c.nodes))
	for _, n := range c.nodes {
		label := "Data Object"
		if n.Category == CategoryAI {
			label = "AI Response"
		}
		out = append(out, DataSource{NodeID: n.ID, Name: n.Name, Output: label})
	}
	return out
}

// DataSource is one entry of the editor's "available data" panel.
type DataSource struct {
	NodeID string `json:"nodeId"`
	Name   string `json:"name"`
	Output string `json:"output"`
}

// HitTest reports the port or node body under p. Ports take precedence over
// bodies and later nodes are drawn above earlier ones.
func (c *Canvas) HitTest(p Point) Hit {
	for i := len(c.nodes) - 1; i >= 0; i-- {
		n := *c.nodes[i]
		for _, port := range Ports {
			if nearPort(n, port, p) {
				return Hit{Kind: HitPort, NodeID: n.ID, Port: port}
			}
		}
	}
	for i := len(c.nodes) - 1; i >= 0; i-- {
		if insideBody(*c.nodes[i], p) {
			return Hit{Kind: HitNode, NodeID: c.nodes[i].ID}
		}
	}
	return Hit{Kind: HitNone}
}

func (c *Canvas) insert(n *Node) {
	c.nodes = append(c.nodes, n)
	c.index[n.ID] = n
}

func (c *Canvas) commit(conn Connection) {
	c.connections = append(c.connections, conn)
	c.connIDs[conn.ID] = struct{}{}
	c.index[conn.FromNode].Connections = append(c.index[conn.FromNode].Connections, conn.ID)
	c.index[conn.ToNode].Connections = append(c.index[conn.ToNode].Connections, conn.ID)
}

// nextID returns the next sequence id that is neither in use nor reserved.
func (c *Canvas) nextID(prefix string, reserved map[string]struct{}) string {
	for {
		c.seq++
		id := fmt.Sprintf("%s-%d", prefix, c.seq)
		if _, taken := c.index[id]; taken {
			continue
		}
		if _, taken := reserved[id]; taken {
			continue
		}
		return id
	}
}

func (c *Canvas) connectionID(from, to string) string {
	for {
		c.seq++
		id := fmt.Sprintf("%s-%s-%d", from, to, c.seq)
		if _, taken := c.connIDs[id]; !taken {
			return id
		}
	}
}
