package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/agents"
	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/ai/anthropic"
	"github.com/spigell/interview-agent/internal/ai/gemini"
	"github.com/spigell/interview-agent/internal/ai/openai"
	"github.com/spigell/interview-agent/internal/interview"
	"github.com/spigell/interview-agent/internal/logger"
	"github.com/spigell/interview-agent/internal/metrics"
	"github.com/spigell/interview-agent/internal/secrets"
	"github.com/spigell/interview-agent/internal/storage/memory"
	"github.com/spigell/interview-agent/internal/storage/sqlite"
)

const (
	providerGemini    = "gemini"
	providerOpenAI    = "openai"
	providerGroq      = "groq"
	providerOllama    = "ollama"
	providerAnthropic = "anthropic"

	storageMemory = "memory"
	storageSQLite = "sqlite"

	ollamaBaseURL = "http://localhost:11434/v1"
)

// application holds everything a command needs to run interviews.
type application struct {
	service  *interview.Service
	recorder *metrics.Recorder
	closers  []io.Closer
}

func (a *application) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newApplication(ctx context.Context, cfg *Config, log *zap.Logger) (*application, error) {
	completer, err := newCompleter(ctx, cfg.AI, log)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	instrumented := metrics.Instrument(completer, recorder)

	store, closer, err := newStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	opts := agents.Options{Logger: log, MaxLogLength: cfg.AI.MaxLogLength, Temperature: cfg.AI.Temperature}
	interviewer := agents.NewInterviewer(instrumented, opts)
	followUps := agents.NewFollowUp(instrumented, cfg.Interview.SimilarityThreshold, opts)
	silence := agents.NewSilence(instrumented, agents.HesitationConfig{
		MinLength:    cfg.Interview.Hesitation.MinLength,
		Fillers:      cfg.Interview.Hesitation.Fillers,
		Affirmatives: cfg.Interview.Hesitation.Affirmatives,
	}, opts)
	feedback := agents.NewFeedback(instrumented, opts)

	orchestrator := interview.NewOrchestrator(interviewer, followUps, silence, cfg.Interview.MaxFollowUps, log)
	service := interview.NewService(store, orchestrator, interviewer, feedback, interview.ServiceConfig{
		DefaultRole:         cfg.Interview.DefaultRole,
		DefaultMaxQuestions: cfg.Interview.DefaultMaxQuestions,
		MaxQuestionsLimit:   cfg.Interview.MaxQuestionsLimit,
	}, log, interview.WithObserver(recorder))

	app := &application{service: service, recorder: recorder}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	log.Info("interview service ready",
		zap.String(logger.FieldProvider, completer.Provider()),
		zap.String(logger.FieldModel, completer.Model()),
		zap.String("storage", cfg.Storage.Backend),
	)

	return app, nil
}

func newStore(cfg StorageConfig) (interview.Store, io.Closer, error) {
	switch cfg.Backend {
	case storageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, store, nil
	default:
		return memory.New(), nil, nil
	}
}

// newCompleter builds the configured provider. The API key is resolved from
// ai.api-key-file, then ai.api-key, then the provider's usual env variables.
func newCompleter(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = providerGemini
	}

	src := secrets.Source{
		Name:  provider + " api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	}

	switch provider {
	case providerGemini:
		src.Env = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case providerOpenAI:
		src.Env = []string{"OPENAI_API_KEY"}
	case providerGroq:
		src.Env = []string{"GROQ_API_KEY"}
	case providerAnthropic:
		src.Env = []string{"ANTHROPIC_API_KEY"}
	case providerOllama:
		// ollama ignores the key but the client insists on one
		if strings.TrimSpace(src.Value) == "" {
			src.Value = providerOllama
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(src)
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.api-key-file or INTERVIEW_AI_API_KEY)", err)
	}

	switch provider {
	case providerGemini:
		generator, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			MaxRetries:  cfg.MaxRetries,
			Temperature: cfg.Temperature,
		}, log)
		if err != nil {
			return nil, err
		}
		return ai.WithTimeout(generator, cfg.Timeout), nil

	case providerAnthropic:
		client, err := anthropic.New(anthropic.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxRetries:  cfg.MaxRetries,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		baseURL := strings.TrimSpace(cfg.BaseURL)
		if baseURL == "" {
			switch provider {
			case providerGroq:
				baseURL = openai.GroqBaseURL
			case providerOllama:
				baseURL = ollamaBaseURL
			}
		}
		client, err := openai.New(openai.Config{
			Provider:    provider,
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     baseURL,
			MaxRetries:  cfg.MaxRetries,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// shutdownContext bounds graceful shutdown.
func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
