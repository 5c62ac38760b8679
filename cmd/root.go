package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-agent/internal/agents"
	"github.com/spigell/interview-agent/internal/interview"
)

const (
	app       = "interview-agent"
	envPrefix = "INTERVIEW"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Interview InterviewConfig `mapstructure:"interview"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	BaseURL      string        `mapstructure:"base-url"`
	MaxRetries   int           `mapstructure:"max-retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Temperature  float32       `mapstructure:"temperature"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type InterviewConfig struct {
	DefaultRole         string           `mapstructure:"default-role"`
	DefaultMaxQuestions int              `mapstructure:"default-max-questions"`
	MaxQuestionsLimit   int              `mapstructure:"max-questions-limit"`
	MaxFollowUps        int              `mapstructure:"max-follow-ups"`
	SimilarityThreshold float64          `mapstructure:"similarity-threshold"`
	Hesitation          HesitationConfig `mapstructure:"hesitation"`
}

type HesitationConfig struct {
	MinLength    int      `mapstructure:"min-length"`
	Fillers      []string `mapstructure:"fillers"`
	Affirmatives []string `mapstructure:"affirmatives"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite-path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-agent runs LLM driven mock job interviews over HTTP or in the terminal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	// We can't proceed if the config file parsed with error.
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read-timeout", 15*time.Second)
	v.SetDefault("server.write-timeout", 90*time.Second)
	v.SetDefault("server.shutdown-timeout", 10*time.Second)

	v.SetDefault("ai.provider", providerGemini)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api-key", "")
	v.SetDefault("ai.api-key-file", "")
	v.SetDefault("ai.base-url", "")
	v.SetDefault("ai.max-retries", 2)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.max-log-length", 200)

	v.SetDefault("interview.default-role", interview.DefaultRole)
	v.SetDefault("interview.default-max-questions", interview.DefaultMaxQuestions)
	v.SetDefault("interview.max-questions-limit", interview.DefaultMaxQuestionsLimit)
	v.SetDefault("interview.max-follow-ups", interview.DefaultMaxFollowUps)
	v.SetDefault("interview.similarity-threshold", agents.DefaultSimilarityThreshold)
	v.SetDefault("interview.hesitation.min-length", agents.DefaultMinAnswerLength)
	v.SetDefault("interview.hesitation.fillers", agents.DefaultFillers)
	v.SetDefault("interview.hesitation.affirmatives", agents.DefaultAffirmatives)

	v.SetDefault("storage.backend", storageMemory)
	v.SetDefault("storage.sqlite-path", app+".db")
}

// readConfig loads file, or interview-agent.yaml from the working directory
// when file is empty. Only the default file may be missing.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(app)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch provider := strings.ToLower(strings.TrimSpace(c.AI.Provider)); provider {
	case providerGemini, providerOpenAI, providerGroq, providerOllama, providerAnthropic:
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}

	switch c.Storage.Backend {
	case storageMemory:
	case storageSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("storage.sqlite-path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	if c.Interview.MaxQuestionsLimit < 1 {
		return errors.New("interview.max-questions-limit must be at least 1")
	}
	if c.Interview.DefaultMaxQuestions < 1 || c.Interview.DefaultMaxQuestions > c.Interview.MaxQuestionsLimit {
		return fmt.Errorf("interview.default-max-questions must be between 1 and %d", c.Interview.MaxQuestionsLimit)
	}
	if c.Interview.MaxFollowUps < 0 {
		return errors.New("interview.max-follow-ups must not be negative")
	}
	if t := c.Interview.SimilarityThreshold; t <= 0 || t > 1 {
		return errors.New("interview.similarity-threshold must be in (0, 1]")
	}

	return nil
}
