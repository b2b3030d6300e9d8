package onvif

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tapoptz/tapoptz/pkg/core"
)

const (
	PTZGetNodes                = "GetNodes"
	PTZGetConfigurations       = "GetConfigurations"
	PTZGetConfigurationOptions = "GetConfigurationOptions"
	PTZGetStatus               = "GetStatus"
	PTZAbsoluteMove            = "AbsoluteMove"
	PTZRelativeMove            = "RelativeMove"
	PTZContinuousMove          = "ContinuousMove"
	PTZStop                    = "Stop"
	PTZGetPresets              = "GetPresets"
	PTZGotoPreset              = "GotoPreset"
	PTZSetPreset               = "SetPreset"
	PTZRemovePreset            = "RemovePreset"
	PTZGotoHomePosition        = "GotoHomePosition"
	PTZSetHomePosition         = "SetHomePosition"
)

var ErrNoPTZ = errors.New("onvif: camera has no PTZ service")

// PTZRequest sends a PTZ command to the camera, params are ready XML elements,
// like ProfileToken tag
func (c *Client) PTZRequest(operation string, params ...string) ([]byte, error) {
	if len(params) == 0 {
		return c.ptzRequest(`<tptz:` + operation + `/>`)
	}
	return c.ptzRequest(`<tptz:` + operation + `>` + strings.Join(params, "") + `</tptz:` + operation + `>`)
}

func (c *Client) ptzRequest(body string) ([]byte, error) {
	if c.ptzURL == "" {
		return nil, ErrNoPTZ
	}
	return c.Request(c.ptzURL, body)
}

func (c *Client) GetNodes() ([]PTZNode, error) {
	b, err := c.PTZRequest(PTZGetNodes)
	if err != nil {
		return nil, err
	}

	var res struct {
		Nodes []PTZNode `xml:"Body>GetNodesResponse>PTZNode"`
	}
	if err = unmarshal(b, &res); err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

func (c *Client) GetConfigurations() ([]PTZConfiguration, error) {
	b, err := c.PTZRequest(PTZGetConfigurations)
	if err != nil {
		return nil, err
	}

	var res struct {
		Configurations []PTZConfiguration `xml:"Body>GetConfigurationsResponse>PTZConfiguration"`
	}
	if err = unmarshal(b, &res); err != nil {
		return nil, err
	}
	return res.Configurations, nil
}

func (c *Client) GetConfigurationOptions(configurationToken string) (*PTZConfigurationOptions, error) {
	b, err := c.ptzRequest(`<tptz:GetConfigurationOptions>
	<tptz:ConfigurationToken>` + escape(configurationToken) + `</tptz:ConfigurationToken>
</tptz:GetConfigurationOptions>`)
	if err != nil {
		return nil, err
	}

	var res struct {
		Options PTZConfigurationOptions `xml:"Body>GetConfigurationOptionsResponse>PTZConfigurationOptions"`
	}
	if err = unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res.Options, nil
}

func (c *Client) GetStatus(profileToken string) (*PTZStatus, error) {
	b, err := c.ptzRequest(`<tptz:GetStatus>` + profileTokenTag(profileToken) + `</tptz:GetStatus>`)
	if err != nil {
		return nil, err
	}

	var res struct {
		Status PTZStatus `xml:"Body>GetStatusResponse>PTZStatus"`
	}
	if err = unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res.Status, nil
}

func (c *Client) AbsoluteMove(profileToken string, position, speed *PTZVector) error {
	if position == nil {
		return errors.New("onvif: empty position")
	}
	_, err := c.ptzRequest(`<tptz:AbsoluteMove>` + profileTokenTag(profileToken) +
		vectorTag("Position", position) + vectorTag("Speed", speed) +
		`</tptz:AbsoluteMove>`)
	return err
}

func (c *Client) RelativeMove(profileToken string, translation, speed *PTZVector) error {
	if translation == nil {
		return errors.New("onvif: empty translation")
	}
	_, err := c.ptzRequest(`<tptz:RelativeMove>` + profileTokenTag(profileToken) +
		vectorTag("Translation", translation) + vectorTag("Speed", speed) +
		`</tptz:RelativeMove>`)
	return err
}

func (c *Client) ContinuousMove(profileToken string, velocity *PTZVector) error {
	if velocity == nil {
		return errors.New("onvif: empty velocity")
	}
	_, err := c.ptzRequest(`<tptz:ContinuousMove>` + profileTokenTag(profileToken) +
		vectorTag("Velocity", velocity) +
		`</tptz:ContinuousMove>`)
	return err
}

func (c *Client) Stop(profileToken string, panTilt, zoom bool) error {
	_, err := c.ptzRequest(`<tptz:Stop>` + profileTokenTag(profileToken) +
		`<tptz:PanTilt>` + strconv.FormatBool(panTilt) + `</tptz:PanTilt>` +
		`<tptz:Zoom>` + strconv.FormatBool(zoom) + `</tptz:Zoom>` +
		`</tptz:Stop>`)
	return err
}

func (c *Client) GetPresets(profileToken string) ([]Preset, error) {
	b, err := c.ptzRequest(`<tptz:GetPresets>` + profileTokenTag(profileToken) + `</tptz:GetPresets>`)
	if err != nil {
		return nil, err
	}

	var res struct {
		Presets []Preset `xml:"Body>GetPresetsResponse>Preset"`
	}
	if err = unmarshal(b, &res); err != nil {
		return nil, err
	}
	return res.Presets, nil
}

func (c *Client) GotoPreset(profileToken, presetToken string, speed *PTZVector) error {
	_, err := c.ptzRequest(`<tptz:GotoPreset>` + profileTokenTag(profileToken) +
		`<tptz:PresetToken>` + escape(presetToken) + `</tptz:PresetToken>` +
		vectorTag("Speed", speed) +
		`</tptz:GotoPreset>`)
	return err
}

// SetPreset save current position as preset. Empty presetToken creates a new preset,
// camera returns the token of the created preset.
func (c *Client) SetPreset(profileToken, presetName, presetToken string) (string, error) {
	body := `<tptz:SetPreset>` + profileTokenTag(profileToken)
	if presetName != "" {
		body += `<tptz:PresetName>` + escape(presetName) + `</tptz:PresetName>`
	}
	if presetToken != "" {
		body += `<tptz:PresetToken>` + escape(presetToken) + `</tptz:PresetToken>`
	}
	body += `</tptz:SetPreset>`

	b, err := c.ptzRequest(body)
	if err != nil {
		return "", err
	}

	var res struct {
		PresetToken string `xml:"Body>SetPresetResponse>PresetToken"`
	}
	if err = unmarshal(b, &res); err != nil {
		return "", err
	}
	return res.PresetToken, nil
}

func (c *Client) RemovePreset(profileToken, presetToken string) error {
	_, err := c.ptzRequest(`<tptz:RemovePreset>` + profileTokenTag(profileToken) +
		`<tptz:PresetToken>` + escape(presetToken) + `</tptz:PresetToken>` +
		`</tptz:RemovePreset>`)
	return err
}

func (c *Client) GotoHomePosition(profileToken string, speed *PTZVector) error {
	_, err := c.ptzRequest(`<tptz:GotoHomePosition>` + profileTokenTag(profileToken) +
		vectorTag("Speed", speed) +
		`</tptz:GotoHomePosition>`)
	return err
}

func (c *Client) SetHomePosition(profileToken string) error {
	_, err := c.ptzRequest(`<tptz:SetHomePosition>` + profileTokenTag(profileToken) + `</tptz:SetHomePosition>`)
	return err
}

func profileTokenTag(token string) string {
	return `<tptz:ProfileToken>` + escape(token) + `</tptz:ProfileToken>`
}

// vectorTag - PTZVector or PTZSpeed element, empty string for nil vector
func vectorTag(name string, v *PTZVector) string {
	if v == nil || (v.PanTilt == nil && v.Zoom == nil) {
		return ""
	}

	s := `<tptz:` + name + `>`
	if v.PanTilt != nil {
		s += `<tt:PanTilt x="` + core.FormatFloat(v.PanTilt.X) + `" y="` + core.FormatFloat(v.PanTilt.Y) + `"` +
			spaceAttr(v.PanTilt.Space) + `/>`
	}
	if v.Zoom != nil {
		s += `<tt:Zoom x="` + core.FormatFloat(v.Zoom.X) + `"` + spaceAttr(v.Zoom.Space) + `/>`
	}
	return s + `</tptz:` + name + `>`
}

func spaceAttr(space string) string {
	if space == "" {
		return ""
	}
	return ` space="` + escape(space) + `"`
}
