package sourmash

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/dib-lab/sourmash-go/pkg/sourmash/internal/backend"
)

// Backend selects how the native library is reached.
type Backend string

const (
	// BackendShared loads libsourmash at runtime with dlopen.
	BackendShared Backend = "shared"
	// BackendLinked uses libsourmash linked in at build time (requires cgo
	// and the sourmash_cgo build tag).
	BackendLinked Backend = "linked"
	// BackendWasm runs a WebAssembly build of the library in-process.
	BackendWasm Backend = "wasm"
)

// EnvLibraryPath overrides the shared library location when Config.Path is
// empty.
const EnvLibraryPath = backend.EnvLibraryPath

// Config expresses the knobs required to open the native library. The zero
// value loads libsourmash from the dynamic loader's search path.
type Config struct {
	// Backend defaults to BackendShared.
	Backend Backend `yaml:"backend" json:"backend,omitempty" validate:"omitempty,oneof=shared linked wasm" jsonschema:"enum=shared,enum=linked,enum=wasm,default=shared"`

	// Path locates the shared object or the .wasm module. Required for the
	// wasm backend; ignored by the linked backend.
	Path string `yaml:"path" json:"path,omitempty" validate:"required_if=Backend wasm" jsonschema_description:"Shared library or WebAssembly module location"`

	// Serialize makes every native call mutually exclusive even when the
	// library keeps its error slot per thread.
	Serialize bool `yaml:"serialize" json:"serialize,omitempty" jsonschema_description:"Serialize all native calls behind one lock"`

	// Logger receives dispatcher diagnostics. Nil binds to slog.Default().
	Logger *slog.Logger `yaml:"-" json:"-" validate:"-"`
}

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Validate checks the configuration's invariants.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendShared
	}
	if c.Path == "" && c.Backend == BackendShared {
		c.Path = backend.DefaultSharedPath()
	}
	return c
}

// ParseConfig decodes and validates a YAML configuration document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file. A non-empty $SOURMASH_LIB
// replaces the file's path for the shared backend.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, err
	}
	if p := os.Getenv(EnvLibraryPath); p != "" && (cfg.Backend == "" || cfg.Backend == BackendShared) {
		cfg.Path = p
	}
	return cfg, nil
}

// ConfigSchema returns the JSON schema of the configuration file.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
