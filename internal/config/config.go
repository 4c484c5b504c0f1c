// Package config loads faqtool settings from defaults, an optional YAML file,
// FAQ_* environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// EnvPrefix is prepended to every environment override, e.g. FAQ_DATA_DIR.
const EnvPrefix = "FAQ"

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Data      DataConfig      `mapstructure:"data"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	HITL      HITLConfig      `mapstructure:"hitl"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ContextBudget int           `mapstructure:"context_budget"`
}

// DataConfig names the data files. Relative file names resolve against Dir.
type DataConfig struct {
	Dir         string `mapstructure:"dir"`
	Regulations string `mapstructure:"regulations"`
	Students    string `mapstructure:"students"`
	Calendar    string `mapstructure:"calendar"`
	Index       string `mapstructure:"index"`
}

type GenerateConfig struct {
	Students    int     `mapstructure:"students"`
	CoursePrice float64 `mapstructure:"course_price"`
	Events      int     `mapstructure:"events"`
	Seed        uint64  `mapstructure:"seed"`
}

type RetrievalConfig struct {
	TopK          int     `mapstructure:"top_k"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	ContextRunes  int     `mapstructure:"context_runes"`
	ChunkTarget   int     `mapstructure:"chunk_target"`
	ChunkMin      int     `mapstructure:"chunk_min"`
	ChunkMax      int     `mapstructure:"chunk_max"`
}

type HITLConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Tools      []string      `mapstructure:"tools"`
	PendingTTL time.Duration `mapstructure:"pending_ttl"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	HistorySize  int           `mapstructure:"history_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit YAML path. When empty, ./faqtool.yaml is used if present.
	ConfigFile string
	// Flags maps config keys (e.g. "data.dir") to the flags that override them.
	Flags map[string]*pflag.Flag
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", ProviderGroq)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.context_budget", 24000)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.regulations", "regulations.txt")
	v.SetDefault("data.students", "students.csv")
	v.SetDefault("data.calendar", "calendar.json")
	v.SetDefault("data.index", "regulations.db")

	v.SetDefault("generate.students", 300)
	v.SetDefault("generate.course_price", 250)
	v.SetDefault("generate.events", 20)
	v.SetDefault("generate.seed", 0)

	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.min_confidence", 0.5)
	v.SetDefault("retrieval.context_runes", 6000)
	v.SetDefault("retrieval.chunk_target", 800)
	v.SetDefault("retrieval.chunk_min", 200)
	v.SetDefault("retrieval.chunk_max", 1200)

	v.SetDefault("hitl.enabled", false)
	v.SetDefault("hitl.tools", []string{"query_student_data"})
	v.SetDefault("hitl.pending_ttl", "10m")

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.history_size", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load resolves the configuration and validates it.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("faqtool")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(ProviderKeyEnv(cfg.LLM.Provider))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ProviderKeyEnv returns the conventional API key variable for a provider.
func ProviderKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

// Validate checks ranges and enumerations. It does not require an API key;
// commands that talk to the model call RequireAPIKey.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderGroq, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q: want %s or %s", c.LLM.Provider, ProviderGroq, ProviderAnthropic))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %v out of range [0,2]", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive"))
	}
	if c.LLM.ContextBudget < 0 {
		errs = append(errs, fmt.Errorf("llm.context_budget must not be negative"))
	}
	if c.Data.Dir == "" {
		errs = append(errs, fmt.Errorf("data.dir must be set"))
	}
	if c.Generate.Students <= 0 {
		errs = append(errs, fmt.Errorf("generate.students must be positive"))
	}
	if c.Generate.CoursePrice < 0 {
		errs = append(errs, fmt.Errorf("generate.course_price must not be negative"))
	}
	if c.Generate.Events < 5 {
		errs = append(errs, fmt.Errorf("generate.events must be at least 5"))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be positive"))
	}
	if c.Retrieval.MinConfidence < 0 || c.Retrieval.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("retrieval.min_confidence %v out of range [0,1]", c.Retrieval.MinConfidence))
	}
	if c.Retrieval.ChunkMin > c.Retrieval.ChunkTarget || c.Retrieval.ChunkTarget > c.Retrieval.ChunkMax {
		errs = append(errs, fmt.Errorf("retrieval chunk sizes must satisfy chunk_min <= chunk_target <= chunk_max"))
	}
	if c.Server.HistorySize <= 0 {
		errs = append(errs, fmt.Errorf("server.history_size must be positive"))
	}
	return errors.Join(errs...)
}

// RequireAPIKey reports a helpful error when no key is configured.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) != "" {
		return nil
	}
	return fmt.Errorf("missing API key: export %s (or %s_LLM_API_KEY) before running", ProviderKeyEnv(c.LLM.Provider), EnvPrefix)
}

// Path resolves a data file name against the data directory.
func (d DataConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// RegulationsPath and friends return the resolved data file paths.
func (d DataConfig) RegulationsPath() string { return d.Path(d.Regulations) }
func (d DataConfig) StudentsPath() string    { return d.Path(d.Students) }
func (d DataConfig) CalendarPath() string    { return d.Path(d.Calendar) }
func (d DataConfig) IndexPath() string       { return d.Path(d.Index) }
