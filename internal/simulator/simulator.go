package simulator

import (
	"encoding/base64"
	"html"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tapoptz/tapoptz/pkg/core"
	"github.com/tapoptz/tapoptz/pkg/onvif"
)

const (
	ProfileMain = "profile_1"
	ProfileSub  = "profile_2"

	maxPresets = 8
)

type Config struct {
	Username string
	Password string

	Manufacturer string
	Model        string

	// Zoom - add absolute zoom space, real Tapo cameras don't have it
	Zoom bool

	// Pan, Tilt - absolute position ranges, -1..1 by default
	Pan  onvif.Range
	Tilt onvif.Range

	// Speed - position units per second at velocity 1
	Speed float64
}

// Camera - virtual ONVIF PTZ camera. Handles device, media and PTZ services
// on any path and keeps position, presets and home in memory.
type Camera struct {
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex
	pan      float64
	tilt     float64
	zoom     float64
	velocity onvif.PTZVector
	moved    time.Time
	home     onvif.PTZVector
	presets  map[string]onvif.Preset
	lastID   int
	rtspHost string

	now func() time.Time
}

func NewCamera(cfg Config, log zerolog.Logger) *Camera {
	if cfg.Manufacturer == "" {
		cfg.Manufacturer = "TP-Link"
	}
	if cfg.Model == "" {
		cfg.Model = "Tapo C200"
	}
	if cfg.Pan.Min >= cfg.Pan.Max {
		cfg.Pan = onvif.Range{Min: -1, Max: 1}
	}
	if cfg.Tilt.Min >= cfg.Tilt.Max {
		cfg.Tilt = onvif.Range{Min: -1, Max: 1}
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 0.5
	}

	return &Camera{
		cfg:     cfg,
		log:     log,
		home:    *onvif.NewPTZVector(0, 0, nil),
		presets: map[string]onvif.Preset{},
		now:     time.Now,
	}
}

// SetRTSPHost - host:port returned in stream URI, request host by default
func (c *Camera) SetRTSPHost(host string) {
	c.mu.Lock()
	c.rtspHost = host
	c.mu.Unlock()
}

// Position - current position with continuous move applied
func (c *Camera) Position() (pan, tilt, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.update()
	return c.pan, c.tilt, c.zoom
}

// Moving - continuous move in progress
func (c *Camera) Moving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moving()
}

func (c *Camera) moving() bool {
	return !c.moved.IsZero()
}

func (c *Camera) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	operation := onvif.GetRequestAction(b)
	if operation == "" {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	c.log.Trace().Msgf("[simulator] request %s %s", r.URL.Path, operation)

	// device time is requested before auth for digest sync
	if operation != onvif.DeviceGetSystemDateAndTime && !c.authorized(b) {
		c.fault(w, http.StatusBadRequest, "Sender", "NotAuthorized", "Sender not authorized")
		return
	}

	c.mu.Lock()
	res, fault := c.handle(operation, b, r.Host)
	c.mu.Unlock()

	if fault != nil {
		c.fault(w, fault.Status, fault.Code, fault.Subcode, fault.Reason)
		return
	}

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	_, _ = w.Write(res)
}

func (c *Camera) fault(w http.ResponseWriter, status int, code, subcode, reason string) {
	c.log.Debug().Str("subcode", subcode).Msg("[simulator] fault")
	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(onvif.FaultResponse(code, subcode, reason))
}

func (c *Camera) handle(operation string, b []byte, host string) ([]byte, *onvif.Fault) {
	switch operation {
	case onvif.DeviceGetCapabilities:
		return onvif.GetCapabilitiesResponse(host), nil
	case onvif.DeviceGetServices:
		return onvif.GetServicesResponse(host), nil
	case onvif.DeviceGetDeviceInformation:
		return onvif.GetDeviceInformationResponse(&onvif.DeviceInformation{
			Manufacturer:    c.cfg.Manufacturer,
			Model:           c.cfg.Model,
			FirmwareVersion: "1.3.6 Build 230719",
			SerialNumber:    "0000000000",
			HardwareId:      "1.0",
		}), nil
	case onvif.DeviceGetSystemDateAndTime, onvif.DeviceGetScopes, onvif.DeviceGetHostname,
		onvif.DeviceGetNTP, onvif.DeviceSystemReboot:
		return onvif.StaticResponse(operation), nil

	case onvif.ServiceGetServiceCapabilities:
		return onvif.GetMediaServiceCapabilitiesResponse(), nil
	case onvif.MediaGetProfiles:
		return onvif.GetProfilesResponse(c.profiles()), nil
	case onvif.MediaGetProfile:
		token := onvif.FindTagValue(b, "ProfileToken")
		for _, profile := range c.profiles() {
			if profile.Token == token {
				return onvif.GetProfileResponse(profile), nil
			}
		}
		return nil, noProfile()
	case onvif.MediaGetStreamUri:
		uri, fault := c.streamURI(b, host)
		if fault != nil {
			return nil, fault
		}
		return onvif.GetStreamUriResponse(uri), nil

	case onvif.PTZGetNodes:
		return onvif.GetNodesResponse([]onvif.PTZNode{c.node()}), nil
	case onvif.PTZGetConfigurations:
		return onvif.GetConfigurationsResponse([]onvif.PTZConfiguration{ptzConfiguration}), nil
	case onvif.PTZGetConfigurationOptions:
		spaces := c.spaces()
		return onvif.GetConfigurationOptionsResponse(&spaces), nil
	}

	if !profileOperations[operation] {
		return nil, &onvif.Fault{
			Status: http.StatusBadRequest, Code: "Receiver",
			Subcode: "ActionNotSupported", Reason: "Optional Action Not Implemented",
		}
	}

	if token := onvif.FindTagValue(b, "ProfileToken"); token != ProfileMain && token != ProfileSub {
		return nil, noProfile()
	}

	c.update()

	switch operation {
	case onvif.PTZGetStatus:
		return onvif.GetStatusResponse(c.status()), nil

	case onvif.PTZAbsoluteMove:
		position := section(b, "Position")
		x, y, ok := findVector2D(position)
		z, hasZoom := findVector1D(position)
		if !ok && !hasZoom {
			return nil, invalidArg("InvalidPosition", "Position is empty")
		}
		if ok {
			if !inside(x, c.cfg.Pan) || !inside(y, c.cfg.Tilt) {
				return nil, invalidArg("InvalidPosition", "Position is out of bounds")
			}
			c.pan, c.tilt = x, y
		}
		if hasZoom {
			if !c.cfg.Zoom || !inside(z, onvif.Range{Min: 0, Max: 1}) {
				return nil, invalidArg("InvalidPosition", "Zoom is out of bounds")
			}
			c.zoom = z
		}
		c.stop()

	case onvif.PTZRelativeMove:
		translation := section(b, "Translation")
		if x, y, ok := findVector2D(translation); ok {
			c.pan = core.Between(c.pan+x, c.cfg.Pan.Min, c.cfg.Pan.Max)
			c.tilt = core.Between(c.tilt+y, c.cfg.Tilt.Min, c.cfg.Tilt.Max)
		}
		if z, ok := findVector1D(translation); ok && c.cfg.Zoom {
			c.zoom = core.Between(c.zoom+z, 0, 1)
		}
		c.stop()

	case onvif.PTZContinuousMove:
		velocity := section(b, "Velocity")
		x, y, _ := findVector2D(velocity)
		z, _ := findVector1D(velocity)
		if !inside(x, unitRange) || !inside(y, unitRange) || !inside(z, unitRange) {
			return nil, invalidArg("InvalidVelocity", "Velocity is out of bounds")
		}
		c.velocity = *onvif.NewPTZVector(x, y, &z)
		c.moved = c.now()

	case onvif.PTZStop:
		c.stop()

	case onvif.PTZGetPresets:
		return onvif.GetPresetsResponse(c.presetList()), nil

	case onvif.PTZGotoPreset:
		preset, ok := c.presets[onvif.FindTagValue(b, "PresetToken")]
		if !ok {
			return nil, noToken()
		}
		c.moveTo(preset.PTZPosition)

	case onvif.PTZSetPreset:
		token := onvif.FindTagValue(b, "PresetToken")
		if token == "" {
			if len(c.presets) >= maxPresets {
				return nil, &onvif.Fault{
					Status: http.StatusInternalServerError, Code: "Receiver",
					Subcode: "TooManyPresets", Reason: "Maximum number of presets reached",
				}
			}
			c.lastID++
			token = strconv.Itoa(c.lastID)
		} else if _, ok := c.presets[token]; !ok {
			return nil, noToken()
		}

		name := onvif.FindTagValue(b, "PresetName")
		if name == "" {
			name = "preset" + token
		}

		c.presets[token] = onvif.Preset{Token: token, Name: name, PTZPosition: c.position()}
		return onvif.SetPresetResponse(token), nil

	case onvif.PTZRemovePreset:
		token := onvif.FindTagValue(b, "PresetToken")
		if _, ok := c.presets[token]; !ok {
			return nil, noToken()
		}
		delete(c.presets, token)

	case onvif.PTZGotoHomePosition:
		c.moveTo(&c.home)

	case onvif.PTZSetHomePosition:
		c.home = *c.position()
	}

	return onvif.EmptyResponse(operation), nil
}

// profileOperations - PTZ operations with ProfileToken param
var profileOperations = map[string]bool{
	onvif.PTZGetStatus: true, onvif.PTZAbsoluteMove: true, onvif.PTZRelativeMove: true,
	onvif.PTZContinuousMove: true, onvif.PTZStop: true, onvif.PTZGetPresets: true,
	onvif.PTZGotoPreset: true, onvif.PTZSetPreset: true, onvif.PTZRemovePreset: true,
	onvif.PTZGotoHomePosition: true, onvif.PTZSetHomePosition: true,
}

var unitRange = onvif.Range{Min: -1, Max: 1}

var ptzConfiguration = onvif.PTZConfiguration{Token: "PTZ-001", Name: "PTZ", NodeToken: "PTZNODE"}

func (c *Camera) profiles() []onvif.Profile {
	cfg := ptzConfiguration
	return []onvif.Profile{
		{Token: ProfileMain, Name: "mainStream", PTZConfiguration: &cfg},
		{Token: ProfileSub, Name: "minorStream", PTZConfiguration: &cfg},
	}
}

func (c *Camera) streamURI(b []byte, host string) (string, *onvif.Fault) {
	var stream string
	switch onvif.FindTagValue(b, "ProfileToken") {
	case ProfileMain:
		stream = "/stream1"
	case ProfileSub:
		stream = "/stream2"
	default:
		return "", noProfile()
	}

	if c.rtspHost != "" {
		host = c.rtspHost
	}
	return "rtsp://" + host + stream, nil
}

func (c *Camera) node() onvif.PTZNode {
	return onvif.PTZNode{
		Token:                  ptzConfiguration.NodeToken,
		Name:                   "PTZ",
		SupportedPTZSpaces:     c.spaces(),
		MaximumNumberOfPresets: maxPresets,
		HomeSupported:          true,
	}
}

func (c *Camera) spaces() onvif.PTZSpaces {
	const generic = "http://www.onvif.org/ver10/tptz/"

	spaces := onvif.PTZSpaces{
		AbsolutePanTiltPositionSpace: []onvif.Space2D{
			{URI: generic + "PanTiltSpaces/PositionGenericSpace", XRange: c.cfg.Pan, YRange: c.cfg.Tilt},
		},
		RelativePanTiltTranslationSpace: []onvif.Space2D{
			{URI: generic + "PanTiltSpaces/TranslationGenericSpace", XRange: unitRange, YRange: unitRange},
		},
		ContinuousPanTiltVelocitySpace: []onvif.Space2D{
			{URI: generic + "PanTiltSpaces/VelocityGenericSpace", XRange: unitRange, YRange: unitRange},
		},
		PanTiltSpeedSpace: []onvif.Space1D{
			{URI: generic + "PanTiltSpaces/GenericSpeedSpace", XRange: onvif.Range{Min: 0, Max: 1}},
		},
	}

	if c.cfg.Zoom {
		spaces.AbsoluteZoomPositionSpace = []onvif.Space1D{
			{URI: generic + "ZoomSpaces/PositionGenericSpace", XRange: onvif.Range{Min: 0, Max: 1}},
		}
		spaces.ContinuousZoomVelocitySpace = []onvif.Space1D{
			{URI: generic + "ZoomSpaces/VelocityGenericSpace", XRange: unitRange},
		}
	}

	return spaces
}

func (c *Camera) position() *onvif.PTZVector {
	if c.cfg.Zoom {
		return onvif.NewPTZVector(c.pan, c.tilt, &c.zoom)
	}
	return onvif.NewPTZVector(c.pan, c.tilt, nil)
}

func (c *Camera) status() *onvif.PTZStatus {
	moveStatus := "IDLE"
	if c.moving() {
		moveStatus = "MOVING"
	}

	status := &onvif.PTZStatus{
		Position:   *c.position(),
		MoveStatus: &onvif.MoveStatus{PanTilt: moveStatus},
		UtcTime:    c.now().UTC().Format(time.RFC3339),
	}
	if c.cfg.Zoom {
		status.MoveStatus.Zoom = moveStatus
	}
	return status
}

func (c *Camera) presetList() []onvif.Preset {
	presets := make([]onvif.Preset, 0, len(c.presets))
	for _, preset := range c.presets {
		presets = append(presets, preset)
	}
	sort.Slice(presets, func(i, j int) bool {
		a, _ := strconv.Atoi(presets[i].Token)
		b, _ := strconv.Atoi(presets[j].Token)
		return a < b
	})
	return presets
}

func (c *Camera) moveTo(v *onvif.PTZVector) {
	c.stop()
	if v == nil {
		return
	}
	if v.PanTilt != nil {
		c.pan, c.tilt = v.PanTilt.X, v.PanTilt.Y
	}
	if v.Zoom != nil {
		c.zoom = v.Zoom.X
	}
}

// update apply continuous move since last update
func (c *Camera) update() {
	if !c.moving() {
		return
	}

	now := c.now()
	dt := now.Sub(c.moved).Seconds() * c.cfg.Speed
	c.moved = now

	if v := c.velocity.PanTilt; v != nil {
		c.pan = core.Between(c.pan+v.X*dt, c.cfg.Pan.Min, c.cfg.Pan.Max)
		c.tilt = core.Between(c.tilt+v.Y*dt, c.cfg.Tilt.Min, c.cfg.Tilt.Max)
	}
	if v := c.velocity.Zoom; v != nil && c.cfg.Zoom {
		c.zoom = core.Between(c.zoom+v.X*dt, 0, 1)
	}
}

func (c *Camera) stop() {
	c.velocity = onvif.PTZVector{}
	c.moved = time.Time{}
}

var (
	reUsername = regexp.MustCompile(`<(?:\w+:)?Username>([^<]*)<`)
	rePassword = regexp.MustCompile(`<(?:\w+:)?Password[^>]*>([^<]*)<`)
	reNonce    = regexp.MustCompile(`<(?:\w+:)?Nonce[^>]*>([^<]*)<`)
	reCreated  = regexp.MustCompile(`<(?:\w+:)?Created[^>]*>([^<]*)<`)
)

// authorized check WS-Security UsernameToken with PasswordDigest
func (c *Camera) authorized(b []byte) bool {
	if c.cfg.Username == "" {
		return true
	}

	username := html.UnescapeString(submatch(reUsername, b))
	if username != c.cfg.Username {
		return false
	}

	nonce, err := base64.StdEncoding.DecodeString(submatch(reNonce, b))
	if err != nil {
		return false
	}

	digest := onvif.PasswordDigest(string(nonce), submatch(reCreated, b), c.cfg.Password)
	return digest == submatch(rePassword, b)
}

func submatch(re *regexp.Regexp, b []byte) string {
	if m := re.FindSubmatch(b); m != nil {
		return string(m[1])
	}
	return ""
}

var (
	reVector2D = regexp.MustCompile(`<(?:\w+:)?PanTilt\s[^>]*?x="([^"]+)"[^>]*?y="([^"]+)"`)
	reVector1D = regexp.MustCompile(`<(?:\w+:)?Zoom\s[^>]*?x="([^"]+)"`)
)

// section - inner XML of first element with name, vector members are self-closing tags
func section(b []byte, name string) []byte {
	re := regexp.MustCompile(`(?s)<(?:\w+:)?` + name + `>(.*?)</`)
	if m := re.FindSubmatch(b); m != nil {
		return m[1]
	}
	return nil
}

func findVector2D(b []byte) (x, y float64, ok bool) {
	m := reVector2D.FindSubmatch(b)
	if m == nil {
		return 0, 0, false
	}
	x, err1 := strconv.ParseFloat(string(m[1]), 64)
	y, err2 := strconv.ParseFloat(string(m[2]), 64)
	return x, y, err1 == nil && err2 == nil
}

func findVector1D(b []byte) (x float64, ok bool) {
	m := reVector1D.FindSubmatch(b)
	if m == nil {
		return 0, false
	}
	x, err := strconv.ParseFloat(string(m[1]), 64)
	return x, err == nil
}

func inside(v float64, r onvif.Range) bool {
	return v >= r.Min && v <= r.Max
}

func noProfile() *onvif.Fault {
	return invalidArg("NoProfile", "The requested profile token does not exist")
}

func noToken() *onvif.Fault {
	return invalidArg("NoToken", "The requested preset token does not exist")
}

func invalidArg(subcode, reason string) *onvif.Fault {
	return &onvif.Fault{Status: http.StatusBadRequest, Code: "Sender", Subcode: subcode, Reason: reason}
}
