package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/specialistvlad/flowcanvas/internal/canvas"
	"github.com/specialistvlad/flowcanvas/internal/session"
	"github.com/specialistvlad/flowcanvas/internal/workflow"
)

// Events accepted from the browser.
const (
	EventAddNode      = "add_node"
	EventPointerDown  = "pointer_down"
	EventPointerMove  = "pointer_move"
	EventPointerUp    = "pointer_up"
	EventPointerLeave = "pointer_leave"
	EventResize       = "resize"
	EventSubmitConfig = "submit_config"
	EventCloseConfig  = "close_config"
	EventUpdateMeta   = "update_meta"
	EventSave         = "save"
	EventRetrySave    = "retry_save"
	EventLoad         = "load"
)

var clientEvents = []string{
	EventAddNode,
	EventPointerDown,
	EventPointerMove,
	EventPointerUp,
	EventPointerLeave,
	EventResize,
	EventSubmitConfig,
	EventCloseConfig,
	EventUpdateMeta,
	EventSave,
	EventRetrySave,
	EventLoad,
}

var errNoLoader = errors.New("loading workflows is not configured")

type addNodePayload struct {
	Type    canvas.Category `json:"type"`
	Subtype string          `json:"subtype"`
}

type submitPayload struct {
	NodeID string         `json:"nodeId"`
	Values map[string]any `json:"values"`
}

type loadPayload struct {
	ID string `json:"id"`
}

// dispatch applies one client event to sess. args are the raw socket.io
// arguments; the first one, if any, is the payload.
func (s *Server) dispatch(ctx context.Context, sess *session.Session, event string, args []any) (session.Update, error) {
	switch event {
	case EventAddNode:
		var p addNodePayload
		if err := decode(args, &p); err != nil {
			return session.Update{}, err
		}
		if _, err := canvas.ParseCategory(string(p.Type)); err != nil {
			return session.Update{}, err
		}
		return sess.AddNode(p.Type, p.Subtype), nil

	case EventPointerDown, EventPointerMove, EventPointerUp:
		var p canvas.Point
		if err := decode(args, &p); err != nil {
			return session.Update{}, err
		}
		switch event {
		case EventPointerDown:
			return sess.Press(p), nil
		case EventPointerMove:
			return sess.Move(p), nil
		default:
			return sess.Release(p), nil
		}

	case EventPointerLeave:
		return sess.Leave(), nil

	case EventResize:
		var size canvas.Size
		if err := decode(args, &size); err != nil {
			return session.Update{}, err
		}
		if size.Width <= 0 || size.Height <= 0 {
			return session.Update{}, fmt.Errorf("invalid canvas size %gx%g", size.Width, size.Height)
		}
		return sess.Resize(size), nil

	case EventSubmitConfig:
		var p submitPayload
		if err := decode(args, &p); err != nil {
			return session.Update{}, err
		}
		return sess.SubmitConfig(p.NodeID, p.Values), nil

	case EventCloseConfig:
		return sess.CloseConfig(), nil

	case EventUpdateMeta:
		var meta workflow.Meta
		if err := decode(args, &meta); err != nil {
			return session.Update{}, err
		}
		return sess.UpdateMeta(meta), nil

	case EventSave, EventRetrySave:
		saveCtx, cancel := context.WithTimeout(ctx, s.opts.SaveTimeout)
		defer cancel()
		if event == EventSave {
			return sess.Save(saveCtx), nil
		}
		return sess.RetrySave(saveCtx), nil

	case EventLoad:
		if s.opts.Loader == nil {
			return session.Update{}, errNoLoader
		}
		var p loadPayload
		if err := decode(args, &p); err != nil {
			return session.Update{}, err
		}
		doc, err := s.opts.Loader.Load(p.ID)
		if err != nil {
			return session.Update{}, err
		}
		return sess.Load(doc), nil
	}
	return session.Update{}, fmt.Errorf("unknown event %q", event)
}

// decode converts the first socket.io argument into v.
func decode(args []any, v any) error {
	if len(args) == 0 || args[0] == nil {
		return errors.New("missing payload")
	}
	buf, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
