package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-agent/internal/agents"
	"github.com/spigell/interview-agent/internal/interview"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaultsProduceValidConfig(t *testing.T) {
	config, err := getConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, ":8000", config.Server.Address)
	assert.Equal(t, 10*time.Second, config.Server.ShutdownTimeout)
	assert.Equal(t, providerGemini, config.AI.Provider)
	assert.Equal(t, 2, config.AI.MaxRetries)
	assert.Zero(t, config.AI.Temperature)
	assert.Equal(t, interview.DefaultRole, config.Interview.DefaultRole)
	assert.Equal(t, interview.DefaultMaxQuestions, config.Interview.DefaultMaxQuestions)
	assert.Equal(t, interview.DefaultMaxFollowUps, config.Interview.MaxFollowUps)
	assert.InDelta(t, agents.DefaultSimilarityThreshold, config.Interview.SimilarityThreshold, 1e-9)
	assert.Equal(t, agents.DefaultFillers, config.Interview.Hesitation.Fillers)
	assert.Equal(t, storageMemory, config.Storage.Backend)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("INTERVIEW_AI_PROVIDER", providerAnthropic)
	t.Setenv("INTERVIEW_INTERVIEW_MAX_FOLLOW_UPS", "0")
	t.Setenv("INTERVIEW_AI_TEMPERATURE", "0.2")

	config, err := getConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, providerAnthropic, config.AI.Provider)
	assert.Equal(t, 0, config.Interview.MaxFollowUps)
	assert.InDelta(t, 0.2, config.AI.Temperature, 1e-6)
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	content := `
server:
  address: ":9000"
ai:
  provider: groq
  model: llama-3.1-8b-instant
interview:
  default-role: Data Engineer
  default-max-questions: 3
storage:
  backend: sqlite
  sqlite-path: ` + filepath.Join(dir, "sessions.db") + `
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	v := newTestViper(t)
	require.NoError(t, readConfig(v, file))

	config, err := getConfig(v)
	require.NoError(t, err)

	assert.Equal(t, ":9000", config.Server.Address)
	assert.Equal(t, providerGroq, config.AI.Provider)
	assert.Equal(t, "llama-3.1-8b-instant", config.AI.Model)
	assert.Equal(t, "Data Engineer", config.Interview.DefaultRole)
	assert.Equal(t, 3, config.Interview.DefaultMaxQuestions)
	assert.Equal(t, storageSQLite, config.Storage.Backend)
	// untouched keys keep their defaults
	assert.Equal(t, 20, config.Interview.MaxQuestionsLimit)
}

func TestReadConfigMissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.NoError(t, readConfig(newTestViper(t), ""))
}

func TestReadConfigMissingExplicitFile(t *testing.T) {
	err := readConfig(newTestViper(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.AI.Provider = "cohere" },
			errMsg: `unsupported ai provider "cohere"`,
		},
		{
			name:   "unknown storage",
			mutate: func(c *Config) { c.Storage.Backend = "redis" },
			errMsg: `unsupported storage backend "redis"`,
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Storage.Backend = storageSQLite
				c.Storage.SQLitePath = " "
			},
			errMsg: "storage.sqlite-path is required for the sqlite backend",
		},
		{
			name:   "default above limit",
			mutate: func(c *Config) { c.Interview.DefaultMaxQuestions = 21 },
			errMsg: "interview.default-max-questions must be between 1 and 20",
		},
		{
			name:   "negative follow-ups",
			mutate: func(c *Config) { c.Interview.MaxFollowUps = -1 },
			errMsg: "interview.max-follow-ups must not be negative",
		},
		{
			name:   "zero similarity",
			mutate: func(c *Config) { c.Interview.SimilarityThreshold = 0 },
			errMsg: "interview.similarity-threshold must be in (0, 1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := getConfig(newTestViper(t))
			require.NoError(t, err)

			tt.mutate(config)
			assert.EqualError(t, config.Validate(), tt.errMsg)
		})
	}
}

func TestValidateAcceptsProviderCase(t *testing.T) {
	config, err := getConfig(newTestViper(t))
	require.NoError(t, err)

	config.AI.Provider = " OpenAI "
	assert.NoError(t, config.Validate())
}
