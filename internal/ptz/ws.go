package ptz

import (
	"sync"

	"github.com/tapoptz/tapoptz/internal/api/ws"
	"github.com/tapoptz/tapoptz/internal/camera"
)

// wsRequest - value of ptz/move and ptz/stop messages
type wsRequest struct {
	Src  string  `json:"src"`
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

// moving - cameras started by one WebSocket client, stopped when client disconnects
type moving struct {
	names map[string]struct{}
	mu    sync.Mutex
}

type movingKey struct{}

func getMoving(tr *ws.Transport) *moving {
	var m *moving
	var created bool

	tr.WithContext(func(ctx map[any]any) {
		if v, ok := ctx[movingKey{}].(*moving); ok {
			m = v
		} else {
			m = &moving{names: map[string]struct{}{}}
			ctx[movingKey{}] = m
			created = true
		}
	})

	if created {
		tr.OnClose(m.stopAll)
	}

	return m
}

func (m *moving) add(name string) {
	m.mu.Lock()
	m.names[name] = struct{}{}
	m.mu.Unlock()
}

func (m *moving) remove(name string) {
	m.mu.Lock()
	delete(m.names, name)
	m.mu.Unlock()
}

func (m *moving) stopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name := range m.names {
		err := service.Do(name, "stop", func(c *camera.Controller) error {
			return c.Stop()
		})
		if err != nil {
			log.Warn().Err(err).Str("camera", name).Msg("[ptz] stop on close")
		}
		delete(m.names, name)
	}
}

func wsMove(tr *ws.Transport, msg *ws.Message) error {
	var req wsRequest
	if err := msg.Unmarshal(&req); err != nil {
		return err
	}

	err := service.Do(req.Src, "move", func(c *camera.Controller) error {
		return c.StartMove(req.Pan, req.Tilt, req.Zoom)
	})
	if err != nil {
		return err
	}

	getMoving(tr).add(req.Src)
	return nil
}

func wsStop(tr *ws.Transport, msg *ws.Message) error {
	var req wsRequest
	if err := msg.Unmarshal(&req); err != nil {
		return err
	}

	err := service.Do(req.Src, "stop", func(c *camera.Controller) error {
		return c.Stop()
	})
	if err != nil {
		return err
	}

	getMoving(tr).remove(req.Src)
	return nil
}

func wsStatus(tr *ws.Transport, msg *ws.Message) error {
	status, err := service.Status(msg.String())
	if err != nil {
		return err
	}

	tr.Write(&ws.Message{Type: "ptz/status", Value: status})
	return nil
}
