package canvas

type mode int

const (
	modeIdle mode = iota
	modePressed
	modeDragging
	modeConnecting
)

func (m mode) String() string {
	switch m {
	case modePressed:
		return "pressed"
	case modeDragging:
		return "dragging"
	case modeConnecting:
		return "connecting"
	default:
		return "idle"
	}
}

// interaction is the single source of truth for the gesture in progress.
// Only the fields relevant to the current mode are meaningful.
type interaction struct {
	mode   mode
	nodeID string
	// offset is pointer minus node position at press time.
	offset Point
	// origin is the pointer position at press time.
	origin Point
	port   Port
}

// Mode reports the current interaction state as a string (idle, pressed,
// dragging or connecting).
func (c *Canvas) Mode() string { return c.state.mode.String() }

// ActiveNode returns the node targeted by the gesture in progress.
func (c *Canvas) ActiveNode() (string, bool) {
	if c.state.mode == modeIdle {
		return "", false
	}
	return c.state.nodeID, true
}

// BeginDrag records the grab offset so later moves preserve the grab point.
// Unknown nodes are ignored, as is a press while a connection is pending.
func (c *Canvas) BeginDrag(nodeID string, pointer Point) {
	n, ok := c.index[nodeID]
	if !ok || c.state.mode == modeConnecting {
		return
	}
	c.state = interaction{
		mode:   modePressed,
		nodeID: nodeID,
		offset: pointer.Sub(n.Position),
		origin: pointer,
	}
}

// UpdateDrag moves the active node so that it follows the pointer, clamped
// to the canvas bounds. It has no effect unless a drag is active.
func (c *Canvas) UpdateDrag(pointer Point) {
	if c.state.mode != modePressed && c.state.mode != modeDragging {
		return
	}
	n, ok := c.index[c.state.nodeID]
	if !ok {
		c.reset()
		return
	}
	if c.state.mode == modePressed {
		if pointer == c.state.origin {
			return
		}
		c.state.mode = modeDragging
	}
	n.Position = c.size.Clamp(pointer.Sub(c.state.offset))
}

// EndDrag clears the drag marker. Click is set when the node was pressed and
// released without moving.
func (c *Canvas) EndDrag() Release {
	var r Release
	switch c.state.mode {
	case modePressed:
		r = Release{NodeID: c.state.nodeID, Click: true}
	case modeDragging:
		r = Release{NodeID: c.state.nodeID}
		if n, ok := c.index[r.NodeID]; ok {
			c.logger.Debug("Node moved.", "node", r.NodeID, "x", n.Position.X, "y", n.Position.Y)
		}
	default:
		return r
	}
	c.reset()
	return r
}

// BeginConnection starts a drag-to-connect gesture from the node's port.
// The rubber band starts collapsed on the port anchor.
func (c *Canvas) BeginConnection(nodeID string, port Port, pointer Point) {
	n, ok := c.index[nodeID]
	if !ok {
		return
	}
	anchor := PortPosition(*n, port)
	c.state = interaction{mode: modeConnecting, nodeID: nodeID, port: port, origin: pointer}
	c.temp = &TempConnection{FromNode: nodeID, FromPort: port, From: anchor, To: anchor}
}

// UpdateConnectionDrag moves the free end of the rubber band.
func (c *Canvas) UpdateConnectionDrag(pointer Point) {
	if c.state.mode != modeConnecting || c.temp == nil {
		return
	}
	c.temp.To = pointer
}

// EndConnection commits a connection from the pending origin to the target
// port when the target is a different, existing node. Whatever the outcome the
// pending gesture is cleared.
func (c *Canvas) EndConnection(targetNodeID string, targetPort Port) (Connection, bool) {
	defer c.reset()
	if c.state.mode != modeConnecting {
		return Connection{}, false
	}
	from := c.state.nodeID
	if targetNodeID == from {
		return Connection{}, false
	}
	if _, ok := c.index[targetNodeID]; !ok {
		return Connection{}, false
	}
	if _, ok := c.index[from]; !ok {
		return Connection{}, false
	}
	conn := Connection{
		ID:       c.connectionID(from, targetNodeID),
		FromNode: from,
		ToNode:   targetNodeID,
		FromPort: c.state.port,
		ToPort:   targetPort,
	}
	c.commit(conn)
	c.logger.Debug("Connection added.", "connection", conn.ID, "from", from, "to", targetNodeID)
	return conn, true
}

// CancelInteraction abandons any drag or pending connection.
func (c *Canvas) CancelInteraction() {
	c.reset()
}

func (c *Canvas) reset() {
	c.state = interaction{}
	c.temp = nil
}
