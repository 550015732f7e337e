package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"replctl/internal/output"
)

// Config is the content of config.yaml.
type Config struct {
	Swift  Swift                `yaml:"swift" json:"swift"`
	REPL   REPL                 `yaml:"repl" json:"repl"`
	Output output.RenderOptions `yaml:"output" json:"output"`
	Log    Log                  `yaml:"log" json:"log"`
	Server Server               `yaml:"server" json:"server"`
	Watch  Watch                `yaml:"watch" json:"watch"`
}

// Swift selects the REPL command.
type Swift struct {
	// Command overrides `swift repl` / `swift run --repl`.
	Command []string `yaml:"command,omitempty" json:"command,omitempty" jsonschema:"description=REPL command line override"`
	// PackageDir runs the REPL inside a Swift package.
	PackageDir string `yaml:"package_dir,omitempty" json:"package_dir,omitempty" jsonschema:"description=directory holding Package.swift"`
}

// REPL tunes how the session talks to the process.
type REPL struct {
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout" jsonschema:"description=idle time before the prompt is checked (nanoseconds in JSON)"`
	BatchSize   int           `yaml:"batch_size" json:"batch_size" jsonschema:"minimum=1"`
	Cols        int           `yaml:"cols" json:"cols" jsonschema:"minimum=20"`
	Rows        int           `yaml:"rows" json:"rows" jsonschema:"minimum=5"`
	Autoreload  bool          `yaml:"autoreload" json:"autoreload"`
}

// Log configures the shared logger.
type Log struct {
	Level string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Server configures `replctl serve`.
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Watch configures `replctl watch`.
type Watch struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		REPL: REPL{
			ReadTimeout: 50 * time.Millisecond,
			BatchSize:   100,
			Cols:        200,
			Rows:        50,
		},
		Output: output.RenderOptions{HideInputs: true},
		Log:    Log{Level: "info"},
		Server: Server{Addr: "127.0.0.1:8787"},
		Watch:  Watch{Debounce: 200 * time.Millisecond},
	}
}

// Load reads config.yaml from the config directory. A missing file yields
// the defaults.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads a config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to config.yaml, creating the directory.
func Save(c Config) (string, error) {
	p, err := Path()
	if err != nil {
		return "", err
	}
	return p, SaveFile(p, c)
}

// SaveFile writes c as YAML to path.
func SaveFile(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Schema returns the JSON Schema of config.yaml.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true, FieldNameTag: "yaml"}
	sch := r.Reflect(&Config{})
	sch.Title = "replctl config"
	sch.Description = "Configuration read from config.yaml in the replctl config directory."
	return sch
}

// MarshalSchema renders a schema as indented JSON.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}
