package onvif

import (
	"bytes"
	"regexp"
	"strconv"
	"time"

	"github.com/tapoptz/tapoptz/pkg/core"
)

const ServiceGetServiceCapabilities = "GetServiceCapabilities"

const (
	DeviceGetCapabilities      = "GetCapabilities"
	DeviceGetDeviceInformation = "GetDeviceInformation"
	DeviceGetHostname          = "GetHostname"
	DeviceGetNTP               = "GetNTP"
	DeviceGetScopes            = "GetScopes"
	DeviceGetServices          = "GetServices"
	DeviceGetSystemDateAndTime = "GetSystemDateAndTime"
	DeviceSystemReboot         = "SystemReboot"
)

const (
	MediaGetProfile     = "GetProfile"
	MediaGetProfiles    = "GetProfiles"
	MediaGetSnapshotUri = "GetSnapshotUri"
	MediaGetStreamUri   = "GetStreamUri"
)

func GetRequestAction(b []byte) string {
	// <soap-env:Body><ns0:GetCapabilities xmlns:ns0="http://www.onvif.org/ver10/device/wsdl">
	// <v:Body><GetSystemDateAndTime xmlns="http://www.onvif.org/ver10/device/wsdl" /></v:Body>
	re := regexp.MustCompile(`Body[^<]+<([^ />]+)`)
	m := re.FindSubmatch(b)
	if len(m) != 2 {
		return ""
	}
	if i := bytes.IndexByte(m[1], ':'); i > 0 {
		return string(m[1][i+1:])
	}
	return string(m[1])
}

func GetCapabilitiesResponse(host string) []byte {
	e := NewEnvelope()
	e.Append(`<tds:GetCapabilitiesResponse>
	<tds:Capabilities>
		<tt:Device>
			<tt:XAddr>http://`, host, `/onvif/device_service</tt:XAddr>
		</tt:Device>
		<tt:Media>
			<tt:XAddr>http://`, host, `/onvif/media_service</tt:XAddr>
			<tt:StreamingCapabilities>
				<tt:RTPMulticast>false</tt:RTPMulticast>
				<tt:RTP_TCP>false</tt:RTP_TCP>
				<tt:RTP_RTSP_TCP>true</tt:RTP_RTSP_TCP>
			</tt:StreamingCapabilities>
		</tt:Media>
		<tt:PTZ>
			<tt:XAddr>http://`, host, `/onvif/ptz_service</tt:XAddr>
		</tt:PTZ>
	</tds:Capabilities>
</tds:GetCapabilitiesResponse>`)
	return e.Bytes()
}

func GetServicesResponse(host string) []byte {
	e := NewEnvelope()
	e.Append(`<tds:GetServicesResponse>
	<tds:Service>
		<tds:Namespace>http://www.onvif.org/ver10/device/wsdl</tds:Namespace>
		<tds:XAddr>http://`, host, `/onvif/device_service</tds:XAddr>
		<tds:Version><tt:Major>2</tt:Major><tt:Minor>5</tt:Minor></tds:Version>
	</tds:Service>
	<tds:Service>
		<tds:Namespace>http://www.onvif.org/ver10/media/wsdl</tds:Namespace>
		<tds:XAddr>http://`, host, `/onvif/media_service</tds:XAddr>
		<tds:Version><tt:Major>2</tt:Major><tt:Minor>5</tt:Minor></tds:Version>
	</tds:Service>
	<tds:Service>
		<tds:Namespace>http://www.onvif.org/ver20/ptz/wsdl</tds:Namespace>
		<tds:XAddr>http://`, host, `/onvif/ptz_service</tds:XAddr>
		<tds:Version><tt:Major>2</tt:Major><tt:Minor>5</tt:Minor></tds:Version>
	</tds:Service>
</tds:GetServicesResponse>`)
	return e.Bytes()
}

func GetSystemDateAndTimeResponse() []byte {
	utc := time.Now().UTC()

	e := NewEnvelope()
	e.Appendf(`<tds:GetSystemDateAndTimeResponse>
	<tds:SystemDateAndTime>
		<tt:DateTimeType>NTP</tt:DateTimeType>
		<tt:DaylightSavings>false</tt:DaylightSavings>
		<tt:TimeZone>
			<tt:TZ>UTC0</tt:TZ>
		</tt:TimeZone>
		<tt:UTCDateTime>
			<tt:Time><tt:Hour>%d</tt:Hour><tt:Minute>%d</tt:Minute><tt:Second>%d</tt:Second></tt:Time>
			<tt:Date><tt:Year>%d</tt:Year><tt:Month>%d</tt:Month><tt:Day>%d</tt:Day></tt:Date>
		</tt:UTCDateTime>
	</tds:SystemDateAndTime>
</tds:GetSystemDateAndTimeResponse>`,
		utc.Hour(), utc.Minute(), utc.Second(), utc.Year(), utc.Month(), utc.Day(),
	)
	return e.Bytes()
}

func GetDeviceInformationResponse(info *DeviceInformation) []byte {
	e := NewEnvelope()
	e.Append(`<tds:GetDeviceInformationResponse>
	<tds:Manufacturer>`, escape(info.Manufacturer), `</tds:Manufacturer>
	<tds:Model>`, escape(info.Model), `</tds:Model>
	<tds:FirmwareVersion>`, escape(info.FirmwareVersion), `</tds:FirmwareVersion>
	<tds:SerialNumber>`, escape(info.SerialNumber), `</tds:SerialNumber>
	<tds:HardwareId>`, escape(info.HardwareId), `</tds:HardwareId>
</tds:GetDeviceInformationResponse>`)
	return e.Bytes()
}

func GetMediaServiceCapabilitiesResponse() []byte {
	e := NewEnvelope()
	e.Append(`<trt:GetServiceCapabilitiesResponse>
	<trt:Capabilities SnapshotUri="false" Rotation="false" VideoSourceMode="false" OSD="false" TemporaryOSDText="false" EXICompression="false">
		<trt:StreamingCapabilities RTPMulticast="false" RTP_TCP="false" RTP_RTSP_TCP="true" NonAggregateControl="false" NoRTSPStreaming="false" />
	</trt:Capabilities>
</trt:GetServiceCapabilitiesResponse>`)
	return e.Bytes()
}

func GetProfilesResponse(profiles []Profile) []byte {
	e := NewEnvelope()
	e.Append(`<trt:GetProfilesResponse>
`)
	for _, profile := range profiles {
		appendProfile(e, "Profiles", profile)
	}
	e.Append(`</trt:GetProfilesResponse>`)
	return e.Bytes()
}

func GetProfileResponse(profile Profile) []byte {
	e := NewEnvelope()
	e.Append(`<trt:GetProfileResponse>
`)
	appendProfile(e, "Profile", profile)
	e.Append(`</trt:GetProfileResponse>`)
	return e.Bytes()
}

func appendProfile(e *Envelope, tag string, profile Profile) {
	e.Append(`<trt:`, tag, ` token="`, escape(profile.Token), `" fixed="true">
	<tt:Name>`, escape(profile.Name), `</tt:Name>
`)
	if cfg := profile.PTZConfiguration; cfg != nil {
		e.Append(`	<tt:PTZConfiguration token="`, escape(cfg.Token), `">
		<tt:Name>`, escape(cfg.Name), `</tt:Name>
		<tt:NodeToken>`, escape(cfg.NodeToken), `</tt:NodeToken>
	</tt:PTZConfiguration>
`)
	}
	e.Append(`</trt:`, tag, `>
`)
}

func GetStreamUriResponse(uri string) []byte {
	e := NewEnvelope()
	e.Append(`<trt:GetStreamUriResponse><trt:MediaUri><tt:Uri>`, escape(uri), `</tt:Uri></trt:MediaUri></trt:GetStreamUriResponse>`)
	return e.Bytes()
}

func GetSnapshotUriResponse(uri string) []byte {
	e := NewEnvelope()
	e.Append(`<trt:GetSnapshotUriResponse><trt:MediaUri><tt:Uri>`, escape(uri), `</tt:Uri></trt:MediaUri></trt:GetSnapshotUriResponse>`)
	return e.Bytes()
}

func GetNodesResponse(nodes []PTZNode) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:GetNodesResponse>
`)
	for _, node := range nodes {
		e.Append(`<tptz:PTZNode token="`, escape(node.Token), `" FixedHomePosition="`, strconv.FormatBool(node.FixedHomePosition), `">
	<tt:Name>`, escape(node.Name), `</tt:Name>
	<tt:SupportedPTZSpaces>`)
		appendSpaces(e, &node.SupportedPTZSpaces)
		e.Append(`</tt:SupportedPTZSpaces>
	<tt:MaximumNumberOfPresets>`, strconv.Itoa(node.MaximumNumberOfPresets), `</tt:MaximumNumberOfPresets>
	<tt:HomeSupported>`, strconv.FormatBool(node.HomeSupported), `</tt:HomeSupported>
</tptz:PTZNode>
`)
	}
	e.Append(`</tptz:GetNodesResponse>`)
	return e.Bytes()
}

func GetConfigurationsResponse(configs []PTZConfiguration) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:GetConfigurationsResponse>
`)
	for _, cfg := range configs {
		e.Append(`<tptz:PTZConfiguration token="`, escape(cfg.Token), `">
	<tt:Name>`, escape(cfg.Name), `</tt:Name>
	<tt:NodeToken>`, escape(cfg.NodeToken), `</tt:NodeToken>
</tptz:PTZConfiguration>
`)
	}
	e.Append(`</tptz:GetConfigurationsResponse>`)
	return e.Bytes()
}

func GetConfigurationOptionsResponse(spaces *PTZSpaces) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:GetConfigurationOptionsResponse>
<tptz:PTZConfigurationOptions>
	<tt:Spaces>`)
	appendSpaces(e, spaces)
	e.Append(`</tt:Spaces>
	<tt:PTZTimeout><tt:Min>PT1S</tt:Min><tt:Max>PT60S</tt:Max></tt:PTZTimeout>
</tptz:PTZConfigurationOptions>
</tptz:GetConfigurationOptionsResponse>`)
	return e.Bytes()
}

func appendSpaces(e *Envelope, spaces *PTZSpaces) {
	for _, s := range spaces.AbsolutePanTiltPositionSpace {
		appendSpace2D(e, "AbsolutePanTiltPositionSpace", s)
	}
	for _, s := range spaces.AbsoluteZoomPositionSpace {
		appendSpace1D(e, "AbsoluteZoomPositionSpace", s)
	}
	for _, s := range spaces.RelativePanTiltTranslationSpace {
		appendSpace2D(e, "RelativePanTiltTranslationSpace", s)
	}
	for _, s := range spaces.RelativeZoomTranslationSpace {
		appendSpace1D(e, "RelativeZoomTranslationSpace", s)
	}
	for _, s := range spaces.ContinuousPanTiltVelocitySpace {
		appendSpace2D(e, "ContinuousPanTiltVelocitySpace", s)
	}
	for _, s := range spaces.ContinuousZoomVelocitySpace {
		appendSpace1D(e, "ContinuousZoomVelocitySpace", s)
	}
	for _, s := range spaces.PanTiltSpeedSpace {
		appendSpace1D(e, "PanTiltSpeedSpace", s)
	}
	for _, s := range spaces.ZoomSpeedSpace {
		appendSpace1D(e, "ZoomSpeedSpace", s)
	}
}

func appendSpace2D(e *Envelope, tag string, s Space2D) {
	e.Append(`
		<tt:`, tag, `>
			<tt:URI>`, escape(s.URI), `</tt:URI>
			<tt:XRange><tt:Min>`, core.FormatFloat(s.XRange.Min), `</tt:Min><tt:Max>`, core.FormatFloat(s.XRange.Max), `</tt:Max></tt:XRange>
			<tt:YRange><tt:Min>`, core.FormatFloat(s.YRange.Min), `</tt:Min><tt:Max>`, core.FormatFloat(s.YRange.Max), `</tt:Max></tt:YRange>
		</tt:`, tag, `>`)
}

func appendSpace1D(e *Envelope, tag string, s Space1D) {
	e.Append(`
		<tt:`, tag, `>
			<tt:URI>`, escape(s.URI), `</tt:URI>
			<tt:XRange><tt:Min>`, core.FormatFloat(s.XRange.Min), `</tt:Min><tt:Max>`, core.FormatFloat(s.XRange.Max), `</tt:Max></tt:XRange>
		</tt:`, tag, `>`)
}

func GetStatusResponse(status *PTZStatus) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:GetStatusResponse>
<tptz:PTZStatus>
	`, vectorElement("Position", &status.Position), `
`)
	if ms := status.MoveStatus; ms != nil {
		e.Append(`	<tt:MoveStatus><tt:PanTilt>`, ms.PanTilt, `</tt:PanTilt>`)
		if ms.Zoom != "" {
			e.Append(`<tt:Zoom>`, ms.Zoom, `</tt:Zoom>`)
		}
		e.Append(`</tt:MoveStatus>
`)
	}
	if status.Error != "" {
		e.Append(`	<tt:Error>`, escape(status.Error), `</tt:Error>
`)
	}
	e.Append(`	<tt:UtcTime>`, status.UtcTime, `</tt:UtcTime>
</tptz:PTZStatus>
</tptz:GetStatusResponse>`)
	return e.Bytes()
}

func GetPresetsResponse(presets []Preset) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:GetPresetsResponse>
`)
	for _, preset := range presets {
		e.Append(`<tptz:Preset token="`, escape(preset.Token), `">
	<tt:Name>`, escape(preset.Name), `</tt:Name>
`)
		if preset.PTZPosition != nil {
			e.Append(`	`, vectorElement("PTZPosition", preset.PTZPosition), `
`)
		}
		e.Append(`</tptz:Preset>
`)
	}
	e.Append(`</tptz:GetPresetsResponse>`)
	return e.Bytes()
}

func SetPresetResponse(token string) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:SetPresetResponse><tptz:PresetToken>`, escape(token), `</tptz:PresetToken></tptz:SetPresetResponse>`)
	return e.Bytes()
}

// EmptyResponse for operations without response body: AbsoluteMove, Stop, SetHomePosition...
func EmptyResponse(operation string) []byte {
	e := NewEnvelope()
	e.Append(`<tptz:`, operation, `Response/>`)
	return e.Bytes()
}

// FaultResponse - SOAP 1.2 fault, should be sent with HTTP status 400 or 500
func FaultResponse(code, subcode, reason string) []byte {
	e := NewEnvelope()
	e.Append(`<s:Fault>
	<s:Code>
		<s:Value>s:`, code, `</s:Value>
		<s:Subcode><s:Value>ter:`, subcode, `</s:Value></s:Subcode>
	</s:Code>
	<s:Reason><s:Text xml:lang="en">`, escape(reason), `</s:Text></s:Reason>
</s:Fault>`)
	return e.Bytes()
}

// vectorElement - same as vectorTag, but with schema namespace for responses
func vectorElement(name string, v *PTZVector) string {
	s := `<tt:` + name + `>`
	if v.PanTilt != nil {
		s += `<tt:PanTilt x="` + core.FormatFloat(v.PanTilt.X) + `" y="` + core.FormatFloat(v.PanTilt.Y) + `"` +
			spaceAttr(v.PanTilt.Space) + `/>`
	}
	if v.Zoom != nil {
		s += `<tt:Zoom x="` + core.FormatFloat(v.Zoom.X) + `"` + spaceAttr(v.Zoom.Space) + `/>`
	}
	return s + `</tt:` + name + `>`
}

func StaticResponse(operation string) []byte {
	switch operation {
	case DeviceGetSystemDateAndTime:
		return GetSystemDateAndTimeResponse()
	}

	e := NewEnvelope()
	e.Append(responses[operation])
	return e.Bytes()
}

var responses = map[string]string{
	DeviceGetHostname:  `<tds:GetHostnameResponse><tds:HostnameInformation /></tds:GetHostnameResponse>`,
	DeviceGetNTP:       `<tds:GetNTPResponse><tds:NTPInformation /></tds:GetNTPResponse>`,
	DeviceSystemReboot: `<tds:SystemRebootResponse><tds:Message>OK</tds:Message></tds:SystemRebootResponse>`,

	DeviceGetScopes: `<tds:GetScopesResponse>
	<tds:Scopes><tt:ScopeDef>Fixed</tt:ScopeDef><tt:ScopeItem>onvif://www.onvif.org/name/tapoptz</tt:ScopeItem></tds:Scopes>
	<tds:Scopes><tt:ScopeDef>Fixed</tt:ScopeDef><tt:ScopeItem>onvif://www.onvif.org/Profile/Streaming</tt:ScopeItem></tds:Scopes>
	<tds:Scopes><tt:ScopeDef>Fixed</tt:ScopeDef><tt:ScopeItem>onvif://www.onvif.org/type/ptz</tt:ScopeItem></tds:Scopes>
</tds:GetScopesResponse>`,
}
