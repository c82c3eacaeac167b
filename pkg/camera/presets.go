package camera

// Preset names for common configurations
const (
	PresetDefault  = "default"
	Preset720p     = "720p"
	Preset1080p    = "1080p"
	PresetLowPower = "low_power"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:  DefaultConfig(),
		Preset720p:     HD720Config(),
		Preset1080p:    HD1080Config(),
		PresetLowPower: LowPowerConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		Preset720p,
		Preset1080p,
		PresetLowPower,
	}
}

// GetPreset returns a preset configuration by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// HD720Config returns 1280x720 at 30 FPS.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	cfg.Framerate = 30
	return cfg
}

// HD1080Config returns 1920x1080 at 30 FPS.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Framerate = 30
	cfg.Quality = 85
	return cfg
}

// LowPowerConfig trades preview smoothness for CPU on small boards.
func LowPowerConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 5
	cfg.Quality = 60
	return cfg
}
