package ptz

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tapoptz/tapoptz/internal/api"
	"github.com/tapoptz/tapoptz/internal/camera"
	"github.com/tapoptz/tapoptz/pkg/onvif"
)

// Status - flat camera position for API and WebSocket clients
type Status struct {
	Pan     float64 `json:"pan"`
	Tilt    float64 `json:"tilt"`
	Zoom    float64 `json:"zoom"`
	PanTilt string  `json:"pan_tilt_status,omitempty"`
	ZoomMov string  `json:"zoom_status,omitempty"`
	Error   string  `json:"error,omitempty"`
	UtcTime string  `json:"utc_time,omitempty"`
}

func newStatus(st *onvif.PTZStatus) *Status {
	s := &Status{Error: st.Error, UtcTime: st.UtcTime}
	if v := st.Position.PanTilt; v != nil {
		s.Pan, s.Tilt = v.X, v.Y
	}
	if v := st.Position.Zoom; v != nil {
		s.Zoom = v.X
	}
	if v := st.MoveStatus; v != nil {
		s.PanTilt, s.ZoomMov = v.PanTilt, v.Zoom
	}
	return s
}

// Request - body for POST api/ptz
type Request struct {
	Src    string   `json:"src"`
	Action string   `json:"action"`
	Pan    *float64 `json:"pan,omitempty"`
	Tilt   *float64 `json:"tilt,omitempty"`
	Zoom   *float64 `json:"zoom,omitempty"`
	Speed  *float64 `json:"speed,omitempty"`
	// Duration - seconds for move actions, zero for move without stop
	Duration float64 `json:"duration,omitempty"`
	Preset   string  `json:"preset,omitempty"`
}

func (r *Request) speed(def float64) float64 {
	if r.Speed != nil {
		return *r.Speed
	}
	return def
}

func (r *Request) duration() time.Duration {
	return time.Duration(r.Duration * float64(time.Second))
}

func value(v *float64) float64 {
	if v != nil {
		return *v
	}
	return 0
}

var ErrUnknownAction = errors.New("ptz: unknown action")

func apiCameras(w http.ResponseWriter, r *http.Request) {
	type item struct {
		Name string `json:"name"`
		camera.Config
		Connected bool `json:"connected"`
	}

	var items []item
	for _, name := range service.Names() {
		items = append(items, item{
			Name:      name,
			Config:    service.cameras[name].cfg,
			Connected: service.connected(name) != nil,
		})
	}

	api.ResponseJSON(w, items)
}

func apiPTZ(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		status, err := service.Status(r.URL.Query().Get("src"))
		if err != nil {
			apiError(w, err)
			return
		}
		api.ResponseJSON(w, status)

	case "POST":
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Src == "" {
			req.Src = r.URL.Query().Get("src")
		}
		if !validAction(req.Action) {
			http.Error(w, ErrUnknownAction.Error()+": "+req.Action, http.StatusBadRequest)
			return
		}

		err := service.Do(req.Src, req.Action, func(c *camera.Controller) error {
			return handleRequest(r, c, &req)
		})
		if err != nil {
			apiError(w, err)
			return
		}

	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

func validAction(action string) bool {
	switch action {
	case "move", "left", "right", "up", "down", "stop", "absolute", "relative", "preset", "home":
		return true
	}
	return false
}

func handleRequest(r *http.Request, c *camera.Controller, req *Request) error {
	switch req.Action {
	case "move":
		return c.ContinuousMove(r.Context(), value(req.Pan), value(req.Tilt), value(req.Zoom), req.duration())
	case "left", "right", "up", "down":
		speed := req.speed(camera.DefaultDirectionSpeed)
		duration := req.duration()
		if duration <= 0 {
			duration = camera.DefaultDirectionDuration
		}
		switch req.Action {
		case "left":
			return c.PanLeft(r.Context(), speed, duration)
		case "right":
			return c.PanRight(r.Context(), speed, duration)
		case "up":
			return c.TiltUp(r.Context(), speed, duration)
		default:
			return c.TiltDown(r.Context(), speed, duration)
		}
	case "stop":
		return c.Stop()
	case "absolute":
		return c.AbsoluteMove(req.Pan, req.Tilt, req.Zoom, req.speed(1))
	case "relative":
		return c.RelativeMove(value(req.Pan), value(req.Tilt), value(req.Zoom), req.speed(1))
	case "preset":
		return c.GotoPreset(req.Preset, req.speed(1))
	case "home":
		return c.GotoHome(req.speed(1))
	}
	return ErrUnknownAction
}

func apiPresets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	src := query.Get("src")

	switch r.Method {
	case "GET":
		var presets []onvif.Preset
		err := service.Do(src, "presets", func(c *camera.Controller) (err error) {
			presets, err = c.Presets()
			return
		})
		if err != nil {
			apiError(w, err)
			return
		}
		api.ResponseJSON(w, presets)

	case "POST":
		var token string
		err := service.Do(src, "set_preset", func(c *camera.Controller) (err error) {
			token, err = c.SetPreset(query.Get("name"), query.Get("token"))
			return
		})
		if err != nil {
			apiError(w, err)
			return
		}
		api.ResponseJSON(w, map[string]string{"token": token})

	case "DELETE":
		err := service.Do(src, "remove_preset", func(c *camera.Controller) error {
			return c.RemovePreset(query.Get("token"))
		})
		if err != nil {
			apiError(w, err)
			return
		}

	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

func apiHome(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	src := query.Get("src")

	var err error

	switch r.Method {
	case "POST":
		speed := 1.0
		if s := query.Get("speed"); s != "" {
			if speed, err = strconv.ParseFloat(s, 64); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		err = service.Do(src, "home", func(c *camera.Controller) error {
			return c.GotoHome(speed)
		})
	case "PUT":
		err = service.Do(src, "set_home", func(c *camera.Controller) error {
			return c.SetHome()
		})
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	if err != nil {
		apiError(w, err)
	}
}

type Info struct {
	Name       string                   `json:"name"`
	Device     *onvif.DeviceInformation `json:"device"`
	Profile    *onvif.Profile           `json:"profile"`
	Ranges     camera.Ranges            `json:"ranges"`
	MainStream string                   `json:"main_stream"`
	SubStream  string                   `json:"sub_stream"`
	StreamURI  string                   `json:"stream_uri,omitempty"`
}

func apiInfo(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")

	info := &Info{Name: src}
	err := service.Do(src, "info", func(c *camera.Controller) (err error) {
		if info.Device, err = c.DeviceInfo(); err != nil {
			return
		}
		info.Profile = c.Profile()
		info.Ranges = c.Ranges()
		info.MainStream = c.RTSPURL(1)
		info.SubStream = c.RTSPURL(2)
		// not all firmwares answer GetStreamUri
		info.StreamURI, _ = c.StreamURI()
		return nil
	})
	if err != nil {
		apiError(w, err)
		return
	}

	api.ResponsePrettyJSON(w, info)
}

// apiOnvif - WS-Discovery of ONVIF cameras in local network
func apiOnvif(w http.ResponseWriter, r *http.Request) {
	urls, err := onvif.DiscoveryStreamingURLs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	api.ResponseSources(w, discoverySources(urls))
}

func discoverySources(urls []string) []*api.Source {
	var items []*api.Source

	for _, rawURL := range urls {
		u, err := url.Parse(rawURL)
		if err != nil {
			log.Warn().Str("url", rawURL).Msg("[ptz] broken discovery url")
			continue
		}

		if u.Scheme != "http" {
			log.Warn().Str("url", rawURL).Msg("[ptz] unsupported discovery url")
			continue
		}

		items = append(items, &api.Source{
			Name:     u.Hostname(),
			URL:      rawURL,
			Location: u.Host,
		})
	}

	return items
}

func apiError(w http.ResponseWriter, err error) {
	var fault *onvif.Fault

	switch {
	case errors.Is(err, ErrCameraNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &fault):
		api.Error(w, err, http.StatusBadGateway)
	default:
		api.Error(w, err, http.StatusInternalServerError)
	}
}
