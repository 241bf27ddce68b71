package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetectTransport(t *testing.T) {
	tests := []struct {
		name     string
		i3Sock   string
		swaySock string
		display  string
		expected string
	}{
		{
			name:     "i3 session",
			i3Sock:   "/run/user/1000/i3/ipc-socket.123",
			display:  ":0",
			expected: "i3",
		},
		{
			name:     "Sway session",
			swaySock: "/run/user/1000/sway-ipc.1000.456.sock",
			expected: "i3",
		},
		{
			name:     "Plain X11 session",
			display:  ":1",
			expected: "x11",
		},
		{
			name:     "Nothing available",
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("I3SOCK", tt.i3Sock)
			t.Setenv("SWAYSOCK", tt.swaySock)
			t.Setenv("DISPLAY", tt.display)

			assert.Equal(t, tt.expected, DetectTransport())
		})
	}
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("wayland", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestOpenAutoWithoutSession(t *testing.T) {
	t.Setenv("I3SOCK", "")
	t.Setenv("SWAYSOCK", "")
	t.Setenv("DISPLAY", "")

	src, err := Open(TransportAuto, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, src)
}
