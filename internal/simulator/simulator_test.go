package simulator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tapoptz/tapoptz/pkg/onvif"
)

func newTestClient(t *testing.T, cam *Camera, user string) *onvif.Client {
	srv := httptest.NewServer(cam)
	t.Cleanup(srv.Close)

	client, err := onvif.NewClient("onvif://" + user + strings.TrimPrefix(srv.URL, "http://"))
	require.Nil(t, err)
	return client
}

func TestAuthorization(t *testing.T) {
	cam := NewCamera(Config{Username: "admin", Password: "secret"}, zerolog.Nop())

	client := newTestClient(t, cam, "admin:secret@")
	_, err := client.GetDeviceInformation()
	require.Nil(t, err)

	srv := httptest.NewServer(cam)
	defer srv.Close()

	_, err = onvif.NewClient("onvif://admin:wrong@" + strings.TrimPrefix(srv.URL, "http://"))
	var fault *onvif.Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, http.StatusBadRequest, fault.Status)
	require.Equal(t, "NotAuthorized", fault.Subcode)

	_, err = onvif.NewClient("onvif://" + strings.TrimPrefix(srv.URL, "http://"))
	require.NotNil(t, err)
}

func TestAuthorizationEscaped(t *testing.T) {
	user := `o'neil & <co>`
	cam := NewCamera(Config{Username: user, Password: "secret"}, zerolog.Nop())

	client := newTestClient(t, cam, url.UserPassword(user, "secret").String()+"@")
	_, err := client.GetDeviceInformation()
	require.Nil(t, err)
}

func TestMedia(t *testing.T) {
	cam := NewCamera(Config{}, zerolog.Nop())
	cam.SetRTSPHost("10.0.0.5:554")
	client := newTestClient(t, cam, "")

	profiles, err := client.GetProfiles()
	require.Nil(t, err)
	require.Len(t, profiles, 2)
	require.Equal(t, "PTZ-001", profiles[1].PTZConfiguration.Token)

	uri, err := client.GetStreamURL(ProfileSub)
	require.Nil(t, err)
	require.Equal(t, "rtsp://10.0.0.5:554/stream2", uri)

	_, err = client.GetStreamURL("wrong")
	require.NotNil(t, err)
}

func TestConfigurationOptions(t *testing.T) {
	cam := NewCamera(Config{Zoom: true, Tilt: onvif.Range{Min: -0.5, Max: 0.8}}, zerolog.Nop())
	client := newTestClient(t, cam, "")

	options, err := client.GetConfigurationOptions("PTZ-001")
	require.Nil(t, err)

	spaces := options.Spaces
	require.Len(t, spaces.AbsolutePanTiltPositionSpace, 1)
	require.Equal(t, onvif.Range{Min: -1, Max: 1}, spaces.AbsolutePanTiltPositionSpace[0].XRange)
	require.Equal(t, onvif.Range{Min: -0.5, Max: 0.8}, spaces.AbsolutePanTiltPositionSpace[0].YRange)
	require.Len(t, spaces.AbsoluteZoomPositionSpace, 1)
	require.Equal(t, "PT60S", options.PTZTimeout.Max)

	configs, err := client.GetConfigurations()
	require.Nil(t, err)
	require.Equal(t, "PTZNODE", configs[0].NodeToken)
}

func TestAbsoluteMoveBounds(t *testing.T) {
	cam := NewCamera(Config{}, zerolog.Nop())
	client := newTestClient(t, cam, "")

	err := client.AbsoluteMove(ProfileMain, onvif.NewPTZVector(2, 0, nil), nil)
	var fault *onvif.Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, "InvalidPosition", fault.Subcode)

	// speed vector must not be taken as position
	zoom := 1.0
	err = client.AbsoluteMove(ProfileMain, onvif.NewPTZVector(0.5, 0.5, nil), onvif.NewPTZVector(1, 1, &zoom))
	require.Nil(t, err)

	pan, tilt, _ := cam.Position()
	require.Equal(t, 0.5, pan)
	require.Equal(t, 0.5, tilt)

	err = client.AbsoluteMove("wrong", onvif.NewPTZVector(0, 0, nil), nil)
	require.True(t, errors.As(err, &fault))
	require.Equal(t, "NoProfile", fault.Subcode)
}

func TestContinuousMoveClock(t *testing.T) {
	cam := NewCamera(Config{Speed: 1}, zerolog.Nop())

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cam.now = func() time.Time { return now }

	sleep := func(d time.Duration) {
		cam.mu.Lock()
		now = now.Add(d)
		cam.mu.Unlock()
	}

	client := newTestClient(t, cam, "")

	require.Nil(t, client.ContinuousMove(ProfileMain, onvif.NewPTZVector(0.5, -0.25, nil)))

	sleep(time.Second)
	pan, tilt, _ := cam.Position()
	require.Equal(t, 0.5, pan)
	require.Equal(t, -0.25, tilt)

	// position is limited by range
	sleep(10 * time.Second)
	pan, tilt, _ = cam.Position()
	require.Equal(t, 1.0, pan)
	require.Equal(t, -1.0, tilt)

	require.Nil(t, client.Stop(ProfileMain, true, true))
	require.False(t, cam.Moving())

	err := client.ContinuousMove(ProfileMain, onvif.NewPTZVector(2, 0, nil))
	require.NotNil(t, err)
}

func TestPresetsLimit(t *testing.T) {
	cam := NewCamera(Config{}, zerolog.Nop())
	client := newTestClient(t, cam, "")

	for i := 0; i < maxPresets; i++ {
		_, err := client.SetPreset(ProfileMain, "", "")
		require.Nil(t, err)
	}

	_, err := client.SetPreset(ProfileMain, "", "")
	var fault *onvif.Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, "TooManyPresets", fault.Subcode)

	presets, err := client.GetPresets(ProfileMain)
	require.Nil(t, err)
	require.Len(t, presets, maxPresets)
	require.Equal(t, "preset1", presets[0].Name)
	require.Equal(t, "8", presets[7].Token)

	// update existing preset by token
	token, err := client.SetPreset(ProfileMain, "kitchen", "8")
	require.Nil(t, err)
	require.Equal(t, "8", token)

	_, err = client.SetPreset(ProfileMain, "", "99")
	require.NotNil(t, err)
}

func TestUnsupported(t *testing.T) {
	cam := NewCamera(Config{}, zerolog.Nop())
	client := newTestClient(t, cam, "")

	_, err := client.PTZRequest("GetCompatibleConfigurations")
	var fault *onvif.Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, "ActionNotSupported", fault.Subcode)

	b, err := client.DeviceRequest(onvif.DeviceGetScopes)
	require.Nil(t, err)
	require.Contains(t, string(b), "onvif://www.onvif.org/type/ptz")
}
