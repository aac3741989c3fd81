package canvas

// Segment is a straight line between two canvas points.
type Segment struct {
	ConnectionID string `json:"connectionId,omitempty"`
	From         Point  `json:"from"`
	To           Point  `json:"to"`
	// Dashed marks the uncommitted rubber-band line.
	Dashed bool `json:"dashed,omitempty"`
}

// NodeView is the render data for one node card.
type NodeView struct {
	ID       string   `json:"id"`
	Category Category `json:"type"`
	Subtype  string   `json:"subtype"`
	Name     string   `json:"name"`
	Position Point    `json:"position"`
	Dragging bool     `json:"dragging,omitempty"`
}

// Scene is everything a rendering layer needs to draw the canvas.
type Scene struct {
	Size  Size       `json:"size"`
	Nodes []NodeView `json:"nodes"`
	Edges []Segment  `json:"edges"`
	Temp  *Segment   `json:"temp,omitempty"`
	Mode  string     `json:"mode"`
}

// Scene derives the current render data. Edge endpoints are resolved from the
// nodes' current positions; connections with a missing endpoint are skipped.
func (c *Canvas) Scene() Scene {
	s := Scene{
		Size:  c.size,
		Nodes: make([]NodeView, 0, len(c.nodes)),
		Edges: make([]Segment, 0, len(c.connections)),
		Mode:  c.state.mode.String(),
	}
	for _, n := range c.nodes {
		s.Nodes = append(s.Nodes, NodeView{
			ID:       n.ID,
			Category: n.Category,
			Subtype:  n.Subtype,
			Name:     n.Name,
			Position: n.Position,
			Dragging: c.state.mode == modeDragging && c.state.nodeID == n.ID,
		})
	}
	for _, conn := range c.connections {
		if seg, ok := c.Edge(conn); ok {
			s.Edges = append(s.Edges, seg)
		}
	}
	if c.temp != nil {
		s.Temp = &Segment{From: c.temp.From, To: c.temp.To, Dashed: true}
	}
	return s
}

// Edge resolves a connection into a segment between its two port anchors.
func (c *Canvas) Edge(conn Connection) (Segment, bool) {
	from, ok := c.index[conn.FromNode]
	if !ok {
		return Segment{}, false
	}
	to, ok := c.index[conn.ToNode]
	if !ok {
		return Segment{}, false
	}
	return Segment{
		ConnectionID: conn.ID,
		From:         PortPosition(*from, conn.FromPort),
		To:           PortPosition(*to, conn.ToPort),
	}, true
}
