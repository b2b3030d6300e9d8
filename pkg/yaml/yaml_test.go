package yaml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	v := struct {
		Pan  float64  `yaml:"pan"`
		Tilt float64  `yaml:"tilt"`
		Tags []string `yaml:"tags,omitempty"`
	}{Pan: 0.5, Tilt: -1, Tags: []string{"door"}}

	b, err := Encode(v, 2)
	require.Nil(t, err)
	require.Equal(t, "pan: 0.5\ntilt: -1\ntags:\n  - door\n", string(b))
}

func TestUnmarshal(t *testing.T) {
	var v map[string]map[string]any
	err := Unmarshal([]byte("cameras: {door: {host: 192.168.1.10, port: 2020}}"), &v)
	require.Nil(t, err)
	require.Equal(t, "192.168.1.10", v["cameras"]["door"].(map[string]any)["host"])
	require.Equal(t, 2020, v["cameras"]["door"].(map[string]any)["port"])
}
