// Package canvas implements the workflow editor's graph model: positioned
// nodes, directed port-to-port connections and the two pointer gestures that
// mutate them (drag-to-move and drag-to-connect).
//
// # Interaction State
//
// A Canvas is always in exactly one interaction state:
//
//	idle ──BeginDrag──▶ pressed ──UpdateDrag(moved)──▶ dragging
//	  ▲                    │                               │
//	  │                 EndDrag (Click=true)          EndDrag (Click=false)
//	  └────────────────────┴───────────────────────────────┘
//
//	idle ──BeginConnection──▶ connecting ──EndConnection / CancelInteraction──▶ idle
//
// The pressed state exists so that a press-and-release without movement is
// reported as a click (open the node's configuration) while any movement turns
// the gesture into a drag that never opens the form.
//
// # Geometry
//
// Connection endpoints are never stored. PortPosition derives them from the
// current node position on every call, so moving a node implicitly moves every
// edge attached to it.
//
// # Errors
//
// Gesture edge cases (self-connections, releasing over empty space, dragging out
// of bounds) are normalized silently. The only error the package returns is an
// unknown catalog entry passed to AddNode.
//
// # Thread-Safety
//
// A Canvas is not safe for concurrent use. It is owned by a single editor
// session which serializes pointer events before applying them.
package canvas
