package onvif

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// All response structs use tags without namespace, so encoding/xml matches
// elements only by local name. Cameras use very different prefixes
// (tt, tptz, ns2, MC1...) for the same elements.

type Vector2D struct {
	X     float64 `xml:"x,attr" json:"x" yaml:"x"`
	Y     float64 `xml:"y,attr" json:"y" yaml:"y"`
	Space string  `xml:"space,attr,omitempty" json:"space,omitempty" yaml:"space,omitempty"`
}

type Vector1D struct {
	X     float64 `xml:"x,attr" json:"x" yaml:"x"`
	Space string  `xml:"space,attr,omitempty" json:"space,omitempty" yaml:"space,omitempty"`
}

// PTZVector used for Position, Translation, Velocity and Speed.
// Nil members are not sent to the camera.
type PTZVector struct {
	PanTilt *Vector2D `xml:"PanTilt" json:"pan_tilt,omitempty" yaml:"pan_tilt,omitempty"`
	Zoom    *Vector1D `xml:"Zoom" json:"zoom,omitempty" yaml:"zoom,omitempty"`
}

func NewPTZVector(pan, tilt float64, zoom *float64) *PTZVector {
	v := &PTZVector{PanTilt: &Vector2D{X: pan, Y: tilt}}
	if zoom != nil {
		v.Zoom = &Vector1D{X: *zoom}
	}
	return v
}

type MoveStatus struct {
	PanTilt string `xml:"PanTilt" json:"pan_tilt,omitempty" yaml:"pan_tilt,omitempty"`
	Zoom    string `xml:"Zoom" json:"zoom,omitempty" yaml:"zoom,omitempty"`
}

type PTZStatus struct {
	Position   PTZVector   `xml:"Position" json:"position" yaml:"position"`
	MoveStatus *MoveStatus `xml:"MoveStatus" json:"move_status,omitempty" yaml:"move_status,omitempty"`
	Error      string      `xml:"Error" json:"error,omitempty" yaml:"error,omitempty"`
	UtcTime    string      `xml:"UtcTime" json:"utc_time,omitempty" yaml:"utc_time,omitempty"`
}

type Range struct {
	Min float64 `xml:"Min" json:"min" yaml:"min"`
	Max float64 `xml:"Max" json:"max" yaml:"max"`
}

type Space2D struct {
	URI    string `xml:"URI" json:"uri" yaml:"uri"`
	XRange Range  `xml:"XRange" json:"x_range" yaml:"x_range"`
	YRange Range  `xml:"YRange" json:"y_range" yaml:"y_range"`
}

type Space1D struct {
	URI    string `xml:"URI" json:"uri" yaml:"uri"`
	XRange Range  `xml:"XRange" json:"x_range" yaml:"x_range"`
}

type PTZSpaces struct {
	AbsolutePanTiltPositionSpace    []Space2D `xml:"AbsolutePanTiltPositionSpace" json:"absolute_pan_tilt_position_space,omitempty" yaml:"absolute_pan_tilt_position_space,omitempty"`
	AbsoluteZoomPositionSpace       []Space1D `xml:"AbsoluteZoomPositionSpace" json:"absolute_zoom_position_space,omitempty" yaml:"absolute_zoom_position_space,omitempty"`
	RelativePanTiltTranslationSpace []Space2D `xml:"RelativePanTiltTranslationSpace" json:"relative_pan_tilt_translation_space,omitempty" yaml:"relative_pan_tilt_translation_space,omitempty"`
	RelativeZoomTranslationSpace    []Space1D `xml:"RelativeZoomTranslationSpace" json:"relative_zoom_translation_space,omitempty" yaml:"relative_zoom_translation_space,omitempty"`
	ContinuousPanTiltVelocitySpace  []Space2D `xml:"ContinuousPanTiltVelocitySpace" json:"continuous_pan_tilt_velocity_space,omitempty" yaml:"continuous_pan_tilt_velocity_space,omitempty"`
	ContinuousZoomVelocitySpace     []Space1D `xml:"ContinuousZoomVelocitySpace" json:"continuous_zoom_velocity_space,omitempty" yaml:"continuous_zoom_velocity_space,omitempty"`
	PanTiltSpeedSpace               []Space1D `xml:"PanTiltSpeedSpace" json:"pan_tilt_speed_space,omitempty" yaml:"pan_tilt_speed_space,omitempty"`
	ZoomSpeedSpace                  []Space1D `xml:"ZoomSpeedSpace" json:"zoom_speed_space,omitempty" yaml:"zoom_speed_space,omitempty"`
}

type PTZConfigurationOptions struct {
	Spaces     PTZSpaces `xml:"Spaces" json:"spaces" yaml:"spaces"`
	PTZTimeout struct {
		Min string `xml:"Min" json:"min" yaml:"min"`
		Max string `xml:"Max" json:"max" yaml:"max"`
	} `xml:"PTZTimeout" json:"ptz_timeout" yaml:"ptz_timeout"`
}

type PTZConfiguration struct {
	Token     string `xml:"token,attr" json:"token" yaml:"token"`
	Name      string `xml:"Name" json:"name" yaml:"name"`
	NodeToken string `xml:"NodeToken" json:"node_token,omitempty" yaml:"node_token,omitempty"`
}

type PTZNode struct {
	Token                  string    `xml:"token,attr" json:"token" yaml:"token"`
	FixedHomePosition      bool      `xml:"FixedHomePosition,attr" json:"fixed_home_position" yaml:"fixed_home_position"`
	Name                   string    `xml:"Name" json:"name" yaml:"name"`
	SupportedPTZSpaces     PTZSpaces `xml:"SupportedPTZSpaces" json:"supported_ptz_spaces" yaml:"supported_ptz_spaces"`
	MaximumNumberOfPresets int       `xml:"MaximumNumberOfPresets" json:"maximum_number_of_presets" yaml:"maximum_number_of_presets"`
	HomeSupported          bool      `xml:"HomeSupported" json:"home_supported" yaml:"home_supported"`
}

type Preset struct {
	Token       string     `xml:"token,attr" json:"token" yaml:"token"`
	Name        string     `xml:"Name" json:"name" yaml:"name"`
	PTZPosition *PTZVector `xml:"PTZPosition" json:"position,omitempty" yaml:"position,omitempty"`
}

type Profile struct {
	Token            string            `xml:"token,attr" json:"token" yaml:"token"`
	Name             string            `xml:"Name" json:"name" yaml:"name"`
	PTZConfiguration *PTZConfiguration `xml:"PTZConfiguration" json:"ptz_configuration,omitempty" yaml:"ptz_configuration,omitempty"`
}

type DeviceInformation struct {
	Manufacturer    string `xml:"Manufacturer" json:"manufacturer" yaml:"manufacturer"`
	Model           string `xml:"Model" json:"model" yaml:"model"`
	FirmwareVersion string `xml:"FirmwareVersion" json:"firmware_version" yaml:"firmware_version"`
	SerialNumber    string `xml:"SerialNumber" json:"serial_number" yaml:"serial_number"`
	HardwareId      string `xml:"HardwareId" json:"hardware_id" yaml:"hardware_id"`
}

type Service struct {
	XAddr string `xml:"XAddr" json:"xaddr" yaml:"xaddr"`
}

type Capabilities struct {
	Analytics *Service `xml:"Analytics" json:"analytics,omitempty" yaml:"analytics,omitempty"`
	Device    *Service `xml:"Device" json:"device,omitempty" yaml:"device,omitempty"`
	Events    *Service `xml:"Events" json:"events,omitempty" yaml:"events,omitempty"`
	Imaging   *Service `xml:"Imaging" json:"imaging,omitempty" yaml:"imaging,omitempty"`
	Media     *Service `xml:"Media" json:"media,omitempty" yaml:"media,omitempty"`
	PTZ       *Service `xml:"PTZ" json:"ptz,omitempty" yaml:"ptz,omitempty"`
}

// Fault - SOAP 1.2 (Code/Reason) or SOAP 1.1 (faultcode/faultstring) error from camera
type Fault struct {
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code"`
	Subcode string `json:"subcode,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (f *Fault) Error() string {
	s := "onvif: fault " + f.Code
	if f.Subcode != "" {
		s += "/" + f.Subcode
	}
	if f.Reason != "" {
		s += ": " + f.Reason
	}
	return s
}

// ParseFault return nil if body has no SOAP Fault
func ParseFault(b []byte) *Fault {
	var res struct {
		Fault *struct {
			Code struct {
				Value   string `xml:"Value"`
				Subcode struct {
					Value string `xml:"Value"`
				} `xml:"Subcode"`
			} `xml:"Code"`
			Reason struct {
				Text string `xml:"Text"`
			} `xml:"Reason"`
			FaultCode   string `xml:"faultcode"`
			FaultString string `xml:"faultstring"`
		} `xml:"Body>Fault"`
	}

	if err := xml.Unmarshal(b, &res); err != nil || res.Fault == nil {
		return nil
	}

	f := &Fault{
		Code:    trimPrefix(res.Fault.Code.Value),
		Subcode: trimPrefix(res.Fault.Code.Subcode.Value),
		Reason:  strings.TrimSpace(res.Fault.Reason.Text),
	}
	if f.Code == "" {
		f.Code = trimPrefix(res.Fault.FaultCode)
	}
	if f.Reason == "" {
		f.Reason = strings.TrimSpace(res.Fault.FaultString)
	}
	return f
}

// trimPrefix - "ter:InvalidArgVal" => "InvalidArgVal"
func trimPrefix(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func unmarshal(b []byte, v any) error {
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("onvif: can't parse response: %w", err)
	}
	return nil
}
