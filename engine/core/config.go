package core

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvConfigPath        = "ANIMA_CONFIG"
	EnvValidation        = "ANIMA_VALIDATION"
	EnvRequireValidation = "ANIMA_REQUIRE_VALIDATION"
	EnvLogLevel          = "ANIMA_LOG_LEVEL"
	EnvShaderDir         = "ANIMA_SHADER_DIR"
	EnvWindowWidth       = "ANIMA_WINDOW_WIDTH"
	EnvWindowHeight      = "ANIMA_WINDOW_HEIGHT"
	EnvWindowTitle       = "ANIMA_WINDOW_TITLE"
)

type WindowConfig struct {
	// The title of the window.
	Title string `toml:"title"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"y"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height    uint32 `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

type VulkanConfig struct {
	ApplicationName string `toml:"application_name"`
	EngineName      string `toml:"engine_name"`
	// Validation enables the validation layers and the debug reporter.
	Validation bool `toml:"validation"`
	// RequireValidation turns a missing validation layer into a startup
	// failure instead of a warning.
	RequireValidation bool     `toml:"require_validation"`
	ValidationLayers  []string `toml:"validation_layers"`
	// VerboseDiagnostics also forwards information and debug reports.
	VerboseDiagnostics bool `toml:"verbose_diagnostics"`
}

type AssetsConfig struct {
	ShaderDir      string `toml:"shader_dir"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	// WatchShaders reports changes to compiled shaders while running.
	WatchShaders bool `toml:"watch_shaders"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Config is built once at startup and passed around by value.
type Config struct {
	Window WindowConfig `toml:"window"`
	Vulkan VulkanConfig `toml:"vulkan"`
	Assets AssetsConfig `toml:"assets"`
	Log    LogConfig    `toml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:     "HelloTriangle",
			StartPosX: 100,
			StartPosY: 100,
			Width:     512,
			Height:    512,
			Resizable: false,
		},
		Vulkan: VulkanConfig{
			ApplicationName:  "Hello Triangle",
			EngineName:       "Anima",
			Validation:       ValidationDefault,
			ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
		},
		Assets: AssetsConfig{
			ShaderDir:      filepath.Join("assets", "shaders"),
			VertexShader:   "vert.spv",
			FragmentShader: "frag.spv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig layers the defaults, the TOML file at tomlPath, the dotenv file
// at envPath and the process environment, in that order. Missing files are
// skipped; malformed ones are errors.
func LoadConfig(tomlPath string, envPath string) (Config, error) {
	cfg := DefaultConfig()

	if tomlPath != "" {
		data, err := os.ReadFile(tomlPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			LogDebug("config file `%s` not found, using defaults", tomlPath)
		case err != nil:
			return Config{}, err
		default:
			dec := toml.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cfg); err != nil {
				return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, tomlPath, err)
			}
		}
	}

	env := map[string]string{}
	if envPath != "" {
		fileEnv, err := godotenv.Read(envPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, envPath, err)
		default:
			env = fileEnv
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvValidation); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvValidation, v)
		}
		c.Vulkan.Validation = b
	}
	if v, ok := lookup(EnvRequireValidation); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRequireValidation, v)
		}
		c.Vulkan.RequireValidation = b
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvShaderDir); ok {
		c.Assets.ShaderDir = v
	}
	if v, ok := lookup(EnvWindowTitle); ok {
		c.Window.Title = v
	}
	for key, dst := range map[string]*uint32{
		EnvWindowWidth:  &c.Window.Width,
		EnvWindowHeight: &c.Window.Height,
	} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
		}
		*dst = uint32(n)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size must be non-zero, got %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Assets.VertexShader == "" || c.Assets.FragmentShader == "" {
		return fmt.Errorf("%w: vertex and fragment shaders must be set", ErrInvalidConfig)
	}
	if c.Vulkan.Validation && len(c.Vulkan.ValidationLayers) == 0 {
		return fmt.Errorf("%w: validation enabled without any layer", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
