// Package config resolves runtime settings from defaults, the YAML file under
// the studio home, environment variables and command-line flags, in that
// order.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
	"github.com/Protocol-Lattice/lattice-studio/src/terminal"
)

const (
	// HomeEnv overrides the studio home directory.
	HomeEnv  = "LATTICE_STUDIO_HOME"
	ModelEnv = "LATTICE_STUDIO_MODEL"

	homeDirName    = ".lattice-studio"
	configFileName = "config.yaml"
)

const defaultConfigYAML = `# lattice-studio configuration
version: 1

# Model used for code generation. Planning and titles use plan_model on the
# managed backend.
model: gemini-3-flash-preview
plan_model: gemini-3-flash-preview

# Stack for new projects: vanilla, react or nextjs.
stack: vanilla

# Where projects, custom models and logs are stored. Relative to the studio
# home when not absolute.
data_dir: data

# Address of the local preview server.
preview_addr: 127.0.0.1:7878

# How long a simulated terminal command stays in the running state.
command_delay: 1500ms

# UTCP provider file for utcp: models.
utcp_providers: ""
`

// File models config.yaml.
type File struct {
	Version       int           `yaml:"version"`
	Model         string        `yaml:"model"`
	PlanModel     string        `yaml:"plan_model"`
	Stack         string        `yaml:"stack"`
	DataDir       string        `yaml:"data_dir"`
	PreviewAddr   string        `yaml:"preview_addr"`
	CommandDelay  time.Duration `yaml:"command_delay"`
	UTCPProviders string        `yaml:"utcp_providers,omitempty"`
}

// Config is the fully resolved configuration.
type Config struct {
	Home         string
	ConfigPath   string
	DataDir      string
	APIKey       string
	Model        string
	PlanModel    string
	Stack        project.Stack
	PreviewAddr  string
	CommandDelay time.Duration
	UTCPPath     string

	// Headless one-shot mode when Prompt is set.
	Workspace string
	Prompt    string
}

// LogsDir returns the directory holding studio.log.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// Headless reports whether a one-shot prompt was given.
func (c *Config) Headless() bool {
	return strings.TrimSpace(c.Prompt) != ""
}

func defaultFile() File {
	return File{
		Version:      1,
		Model:        llm.DefaultPlanModel,
		PlanModel:    llm.DefaultPlanModel,
		Stack:        string(project.StackVanilla),
		DataDir:      "data",
		PreviewAddr:  "127.0.0.1:7878",
		CommandDelay: terminal.DefaultDelay,
	}
}

// Home returns the studio home directory.
func Home() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home: %w", err)
	}
	return filepath.Join(home, homeDirName), nil
}

// Load resolves the configuration for the given command-line arguments
// (without the program name). Usage and flag errors go to stderr.
func Load(args []string, stderr io.Writer) (*Config, error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}
	return load(home, args, os.Getenv, stderr)
}

func load(home string, args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	flags := pflag.NewFlagSet("lattice-studio", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", filepath.Join(home, configFileName), "Path to config.yaml.")
	dataDir := flags.String("data-dir", "", "Directory for projects and logs.")
	stack := flags.StringP("stack", "s", "", "Stack for new projects (vanilla, react, nextjs).")
	model := flags.StringP("model", "m", "", "Model used for code generation.")
	planModel := flags.String("plan-model", "", "Model used for planning and titles.")
	previewAddr := flags.String("preview-addr", "", "Listen address of the preview server.")
	delay := flags.Duration("command-delay", 0, "Simulated terminal command duration.")
	workspace := flags.StringP("workspace", "w", ".", "Workspace directory for headless runs.")
	prompt := flags.StringP("prompt", "p", "", "Run one prompt headless against --workspace and exit.")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lattice-studio [flags]\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	file := defaultFile()
	if err := readFile(*configPath, &file); err != nil {
		return nil, err
	}

	cfg := &Config{
		Home:         home,
		ConfigPath:   *configPath,
		DataDir:      file.DataDir,
		Model:        file.Model,
		PlanModel:    file.PlanModel,
		PreviewAddr:  file.PreviewAddr,
		CommandDelay: file.CommandDelay,
		UTCPPath:     file.UTCPProviders,
		Workspace:    *workspace,
		Prompt:       *prompt,
	}
	stackName := file.Stack

	cfg.APIKey = firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY"))
	if v := strings.TrimSpace(getenv(ModelEnv)); v != "" {
		cfg.Model = v
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *stack != "" {
		stackName = *stack
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *planModel != "" {
		cfg.PlanModel = *planModel
	}
	if *previewAddr != "" {
		cfg.PreviewAddr = *previewAddr
	}
	if *delay > 0 {
		cfg.CommandDelay = *delay
	}

	if cfg.Stack, err = project.ParseStack(stackName); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(home, cfg.DataDir)
	}
	if cfg.CommandDelay <= 0 {
		cfg.CommandDelay = terminal.DefaultDelay
	}
	return cfg, nil
}

// readFile overlays the YAML file onto dst, writing the commented default
// when the file does not exist yet.
func readFile(path string, dst *File) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return writeDefault(path)
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: ensure dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
