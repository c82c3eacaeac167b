package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
	}
	assert.Len(t, Presets(), len(PresetNames()))
	assert.Nil(t, GetPreset("8k"))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty device", func(c *Config) { c.Device = " " }},
		{"tiny width", func(c *Config) { c.Width = 10 }},
		{"huge height", func(c *Config) { c.Height = 5000 }},
		{"zero fps", func(c *Config) { c.Framerate = 0 }},
		{"quality over 100", func(c *Config) { c.Quality = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())
	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	require.NoError(t, m.UpdateConfig(map[string]any{
		"device":  "/dev/video2",
		"quality": float64(70),
		"mirror":  false,
	}))
	cfg := m.GetConfig()
	assert.Equal(t, "/dev/video2", cfg.Device)
	assert.Equal(t, 70, cfg.Quality)
	assert.False(t, cfg.Mirror)

	require.NoError(t, m.UpdateConfig(map[string]any{"preset": Preset720p, "framerate": 24}))
	cfg = m.GetConfig()
	assert.Equal(t, "/dev/video2", cfg.Device, "preset keeps the device")
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 24, cfg.Framerate)
	assert.Len(t, applied, 2)
}

func TestManager_RejectsInvalid(t *testing.T) {
	m := NewManager(DefaultConfig())

	assert.ErrorIs(t, m.UpdateConfig(map[string]any{"preset": "8k"}), ErrInvalidConfig)
	assert.ErrorIs(t, m.UpdateConfig(map[string]any{"width": 1}), ErrInvalidConfig)
	assert.Equal(t, DefaultConfig(), m.GetConfig())
}

func TestManager_CallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	boom := errors.New("device busy")
	m.OnConfigChange = func(Config) error { return boom }

	assert.ErrorIs(t, m.SetConfig(HD1080Config()), boom)
}

func TestCapture_ReleaseWithoutAcquire(t *testing.T) {
	c := NewCapture(NewManager(DefaultConfig()))
	assert.NoError(t, c.Release())
	assert.Zero(t, c.Frames())
}

func TestCapture_ApplyWhileIdle(t *testing.T) {
	m := NewManager(DefaultConfig())
	c := NewCapture(m)
	m.OnConfigChange = c.Apply

	require.NoError(t, m.UpdateConfig(map[string]any{"preset": PresetLowPower}))
	assert.Equal(t, LowPowerConfig(), m.GetConfig())
	assert.NoError(t, c.Release())
}

func TestDeviceID(t *testing.T) {
	assert.Equal(t, 0, deviceID("0"))
	assert.Equal(t, "/dev/video1", deviceID("/dev/video1"))
}
