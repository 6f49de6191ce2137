package registry

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Test is one benchmark definition: a command template and the parallelism
// levels to run it at. Levels are executed strictly in the order listed and
// are never deduplicated; listing the same level twice runs it twice.
type Test struct {
	Name      string `yaml:"name"`
	Command   string `yaml:"command"`
	Processes []int  `yaml:"processes"`
}

// benchConfig is the on-disk shape of the test definitions file.
type benchConfig struct {
	Tests []Test `yaml:"tests"`
}

// Registry manages benchmark test definitions
type Registry struct {
	config Config
	tests  []Test
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log       *slog.Logger
	TestsFile string
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.TestsFile == "" {
		return nil, fmt.Errorf("test definitions file is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	r := &Registry{
		config: cfg,
	}

	if err := r.loadTests(cfg.TestsFile); err != nil {
		return nil, fmt.Errorf("failed to load test definitions: %w", err)
	}

	cfg.Log.Debug("registry loaded", "tests", len(r.tests))

	return r, nil
}

// loadTests loads and validates the test definitions file
func (r *Registry) loadTests(cfgPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := validateTests(cfg.Tests); err != nil {
		return err
	}

	r.tests = cfg.Tests

	return nil
}

// validateTests rejects definitions that would make the run meaningless.
// Any error here is fatal before work starts.
func validateTests(tests []Test) error {
	if len(tests) == 0 {
		return fmt.Errorf("no tests defined")
	}

	seen := make(map[string]bool, len(tests))
	for i, test := range tests {
		if test.Name == "" {
			return fmt.Errorf("test %d has no name", i)
		}
		if seen[test.Name] {
			return fmt.Errorf("duplicate test name %q", test.Name)
		}
		seen[test.Name] = true

		if test.Command == "" {
			return fmt.Errorf("test %q has no command", test.Name)
		}
		if len(test.Processes) == 0 {
			return fmt.Errorf("test %q has no parallelism levels", test.Name)
		}
		for _, p := range test.Processes {
			if p < 1 {
				return fmt.Errorf("test %q has invalid parallelism level %d", test.Name, p)
			}
		}
	}

	return nil
}

// GetTests returns all test definitions in file order
func (r *Registry) GetTests() []Test {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tests
}

// GetTest returns the test definition with the given name
func (r *Registry) GetTest(name string) (Test, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, test := range r.tests {
		if test.Name == name {
			return test, true
		}
	}
	return Test{}, false
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// loadConfig loads test definitions from a file
func loadConfig(path string) (*benchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg benchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
