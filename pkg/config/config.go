package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// PresetConfig declares one rung of the quality ladder. Presets are listed
// best-first and are fixed once the process starts.
type PresetConfig struct {
	Name         string `yaml:"name"`
	MaxDimension int    `yaml:"max_dimension"`
	BitRate      int    `yaml:"bit_rate"`
	MaxFrameRate int    `yaml:"max_frame_rate"`
}

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Console struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		PongTimeout    time.Duration `yaml:"pong_timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"console"`

	Session struct {
		DefaultPreset     string         `yaml:"default_preset"`
		Presets           []PresetConfig `yaml:"presets"`
		AutoAdapt         bool           `yaml:"auto_adapt"`
		ResizeThresholdPx int            `yaml:"resize_threshold_px"`
		ResizeDebounce    time.Duration  `yaml:"resize_debounce"`
		TransitionBitRate int            `yaml:"transition_bit_rate"`
	} `yaml:"session"`

	Desktop struct {
		ReferenceSize int `yaml:"reference_size"`
		ReferenceDPI  int `yaml:"reference_dpi"`
		MinDPI        int `yaml:"min_dpi"`
	} `yaml:"desktop"`

	Monitor struct {
		SampleInterval time.Duration `yaml:"sample_interval"`
		FPSThreshold   float64       `yaml:"fps_threshold"`
		SlowStreak     int           `yaml:"slow_streak"`
	} `yaml:"monitor"`

	Render struct {
		Watermark           string  `yaml:"watermark"`
		OverlayCornerRadius float64 `yaml:"overlay_corner_radius"`
	} `yaml:"render"`

	Transport struct {
		Driver       string `yaml:"driver"`
		DeviceWidth  int    `yaml:"device_width"`
		DeviceHeight int    `yaml:"device_height"`

		Provision struct {
			RetryEnabled      bool          `yaml:"retry_enabled"`
			RetryAttempts     int           `yaml:"retry_attempts"`
			RetryInitialDelay time.Duration `yaml:"retry_initial_delay"`
			RetryMaxDelay     time.Duration `yaml:"retry_max_delay"`
			BreakerFailures   int           `yaml:"breaker_failures"`
			BreakerResetAfter time.Duration `yaml:"breaker_reset_after"`
		} `yaml:"provision"`
	} `yaml:"transport"`

	Monitoring struct {
		PrometheusEnabled bool          `yaml:"prometheus_enabled"`
		MetricsInterval   time.Duration `yaml:"metrics_interval"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`

		WebSocket struct {
			ConnectionsPerMinute int     `yaml:"connections_per_minute"`
			MessagesPerSecond    float64 `yaml:"messages_per_second"`
			Burst                int     `yaml:"burst"`
			MaxConcurrent        int     `yaml:"max_concurrent_connections"`
			MaxMessageSizeBytes  int64   `yaml:"max_message_size_bytes"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Console
	if c.Console.PingInterval <= 0 {
		return fmt.Errorf("console.ping_interval must be > 0")
	}
	if c.Console.PongTimeout <= c.Console.PingInterval {
		return fmt.Errorf("console.pong_timeout must be > console.ping_interval")
	}

	// Session
	if len(c.Session.Presets) == 0 {
		return fmt.Errorf("session.presets must not be empty")
	}
	for i, p := range c.Session.Presets {
		if p.Name == "" {
			return fmt.Errorf("session.presets[%d].name must not be empty", i)
		}
		if p.BitRate <= 0 {
			return fmt.Errorf("session.presets[%d].bit_rate must be > 0", i)
		}
		if p.MaxFrameRate <= 0 {
			return fmt.Errorf("session.presets[%d].max_frame_rate must be > 0", i)
		}
		if p.MaxDimension < 0 {
			return fmt.Errorf("session.presets[%d].max_dimension must be >= 0", i)
		}
	}
	if c.Session.ResizeThresholdPx <= 0 {
		return fmt.Errorf("session.resize_threshold_px must be > 0")
	}
	if c.Session.ResizeDebounce <= 0 {
		return fmt.Errorf("session.resize_debounce must be > 0")
	}
	if c.Session.TransitionBitRate <= 0 {
		return fmt.Errorf("session.transition_bit_rate must be > 0")
	}

	// Desktop
	if c.Desktop.ReferenceSize <= 0 {
		return fmt.Errorf("desktop.reference_size must be > 0")
	}
	if c.Desktop.ReferenceDPI <= 0 {
		return fmt.Errorf("desktop.reference_dpi must be > 0")
	}
	if c.Desktop.MinDPI <= 0 {
		return fmt.Errorf("desktop.min_dpi must be > 0")
	}

	// Monitor
	if c.Monitor.SampleInterval <= 0 {
		return fmt.Errorf("monitor.sample_interval must be > 0")
	}
	if c.Monitor.FPSThreshold <= 0 {
		return fmt.Errorf("monitor.fps_threshold must be > 0")
	}
	if c.Monitor.SlowStreak <= 0 {
		return fmt.Errorf("monitor.slow_streak must be > 0")
	}

	// Render
	if c.Render.OverlayCornerRadius < 0 || c.Render.OverlayCornerRadius > 0.5 {
		return fmt.Errorf("render.overlay_corner_radius must be within [0, 0.5]")
	}

	// Transport
	if c.Transport.Driver == "" {
		return fmt.Errorf("transport.driver must not be empty")
	}
	if c.Transport.DeviceWidth <= 0 || c.Transport.DeviceHeight <= 0 {
		return fmt.Errorf("transport.device_width and device_height must be > 0")
	}
	if c.Transport.Provision.RetryEnabled {
		if c.Transport.Provision.RetryAttempts <= 0 {
			return fmt.Errorf("transport.provision.retry_attempts must be > 0 when retries are enabled")
		}
		if c.Transport.Provision.RetryInitialDelay <= 0 {
			return fmt.Errorf("transport.provision.retry_initial_delay must be > 0 when retries are enabled")
		}
		if c.Transport.Provision.RetryMaxDelay < c.Transport.Provision.RetryInitialDelay {
			return fmt.Errorf("transport.provision.retry_max_delay must be >= retry_initial_delay")
		}
	}
	if c.Transport.Provision.BreakerFailures <= 0 {
		return fmt.Errorf("transport.provision.breaker_failures must be > 0")
	}
	if c.Transport.Provision.BreakerResetAfter <= 0 {
		return fmt.Errorf("transport.provision.breaker_reset_after must be > 0")
	}

	// Monitoring
	if c.Monitoring.MetricsInterval <= 0 {
		return fmt.Errorf("monitoring.metrics_interval must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.ConnectionsPerMinute <= 0 {
			return fmt.Errorf("rate_limiting.websocket.connections_per_minute must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.MessagesPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.websocket.messages_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.Burst <= 0 {
			return fmt.Errorf("rate_limiting.websocket.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.websocket.max_concurrent_connections must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.MaxMessageSizeBytes < 0 {
			return fmt.Errorf("rate_limiting.websocket.max_message_size_bytes must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Default values
	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Console.PingInterval = 30 * time.Second
	cfg.Console.PongTimeout = 60 * time.Second
	cfg.Console.AllowedOrigins = []string{"*"}

	cfg.Session.DefaultPreset = "ultra"
	cfg.Session.Presets = []PresetConfig{
		{Name: "ultra", MaxDimension: 0, BitRate: 20_000_000, MaxFrameRate: 60},
		{Name: "high", MaxDimension: 1920, BitRate: 12_000_000, MaxFrameRate: 60},
		{Name: "standard", MaxDimension: 1080, BitRate: 8_000_000, MaxFrameRate: 60},
		{Name: "low", MaxDimension: 720, BitRate: 4_000_000, MaxFrameRate: 30},
	}
	cfg.Session.AutoAdapt = true
	cfg.Session.ResizeThresholdPx = 50
	cfg.Session.ResizeDebounce = 500 * time.Millisecond
	cfg.Session.TransitionBitRate = 1_000_000

	cfg.Desktop.ReferenceSize = 1080
	cfg.Desktop.ReferenceDPI = 420
	cfg.Desktop.MinDPI = 160

	cfg.Monitor.SampleInterval = 5 * time.Second
	cfg.Monitor.FPSThreshold = 15
	cfg.Monitor.SlowStreak = 4

	cfg.Render.Watermark = ""
	cfg.Render.OverlayCornerRadius = 0.1

	cfg.Transport.Driver = "synthetic"
	cfg.Transport.DeviceWidth = 1080
	cfg.Transport.DeviceHeight = 2340
	cfg.Transport.Provision.RetryEnabled = true
	cfg.Transport.Provision.RetryAttempts = 3
	cfg.Transport.Provision.RetryInitialDelay = 200 * time.Millisecond
	cfg.Transport.Provision.RetryMaxDelay = 2 * time.Second
	cfg.Transport.Provision.BreakerFailures = 5
	cfg.Transport.Provision.BreakerResetAfter = 30 * time.Second

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.MetricsInterval = 30 * time.Second

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	cfg.RateLimiting.WebSocket.ConnectionsPerMinute = 60
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 100
	cfg.RateLimiting.WebSocket.Burst = 200
	cfg.RateLimiting.WebSocket.MaxConcurrent = 0
	cfg.RateLimiting.WebSocket.MaxMessageSizeBytes = 64 * 1024

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("DROIDCAST_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("DROIDCAST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if preset := os.Getenv("DROIDCAST_DEFAULT_PRESET"); preset != "" {
		c.Session.DefaultPreset = preset
	}
	if url := os.Getenv("DROIDCAST_JAEGER_URL"); url != "" {
		c.Tracing.JaegerURL = url
	}
}
