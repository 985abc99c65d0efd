package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/michelleprabhu/bankchatbot/internal/answer"
	"github.com/michelleprabhu/bankchatbot/internal/graph"
	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
)

// ErrConfiguration is matched by every error Load returns.
var ErrConfiguration = errors.New("configuration error")

// MissingSecretsError lists required keys that were absent or blank.
type MissingSecretsError struct {
	Keys []string
}

func (e *MissingSecretsError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Keys, ", "))
}

func (e *MissingSecretsError) Unwrap() error {
	return ErrConfiguration
}

// Config contains all runtime settings for the chatbot.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	AskRatePerSecond         float64
	AskBurst                 int

	LogLevel  string
	LogFormat string

	LLMProvider    answer.Provider
	LLMModel       string
	LLMTemperature float32
	LLMMaxTokens   int
	LLMAPIKey      string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	RetrievalMode         retrieval.Mode
	RetrievalLimit        int
	PromptMaxContextChars int
}

// Load reads environment variables and applies defaults. Secrets are
// checked together so the error names every missing key at once.
func Load() (Config, error) {
	provider, err := answer.ParseProvider(os.Getenv("LLM_PROVIDER"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: LLM_PROVIDER: %w", ErrConfiguration, err)
	}

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "bankchatbot"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		LLMProvider:      provider,
		LLMModel:         envOrDefault("LLM_MODEL", answer.DefaultModel(provider)),
		LLMAPIKey:        envTrimmed(apiKeyVar(provider)),
		Neo4jURI:         envTrimmed("NEO4J_URI"),
		Neo4jUser:        envTrimmed("NEO4J_USER"),
		Neo4jPassword:    os.Getenv("NEO4J_PASSWORD"),
		Neo4jDatabase:    envTrimmed("NEO4J_DATABASE"),
		RetrievalMode:    retrieval.Mode(strings.ToLower(envOrDefault("RETRIEVAL_MODE", string(retrieval.ModePolicy)))),
	}

	var missing []string
	for key, v := range map[string]string{
		apiKeyVar(provider): cfg.LLMAPIKey,
		"NEO4J_URI":         cfg.Neo4jURI,
		"NEO4J_USER":        cfg.Neo4jUser,
		"NEO4J_PASSWORD":    cfg.Neo4jPassword,
	} {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, &MissingSecretsError{Keys: missing}
	}

	if cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, wrap(err)
	}
	if cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, wrap(err)
	}
	if cfg.AskRatePerSecond, err = floatFromEnv("APP_ASK_RATE_PER_SECOND", 2); err != nil {
		return Config{}, wrap(err)
	}
	if cfg.AskBurst, err = intFromEnv("APP_ASK_BURST", 5); err != nil {
		return Config{}, wrap(err)
	}
	temperature, err := floatFromEnv("LLM_TEMPERATURE", 0)
	if err != nil {
		return Config{}, wrap(err)
	}
	cfg.LLMTemperature = float32(temperature)
	if cfg.LLMMaxTokens, err = intFromEnv("LLM_MAX_TOKENS", 1024); err != nil {
		return Config{}, wrap(err)
	}
	if cfg.RetrievalLimit, err = intFromEnv("RETRIEVAL_LIMIT", retrieval.DefaultNodeLimit); err != nil {
		return Config{}, wrap(err)
	}
	if cfg.PromptMaxContextChars, err = intFromEnv("PROMPT_MAX_CONTEXT_CHARS", 0); err != nil {
		return Config{}, wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, wrap(err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("APP_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.SessionInactivityTimeout <= 0 {
		return errors.New("APP_SESSION_INACTIVITY_TIMEOUT must be > 0")
	}
	if c.AskRatePerSecond <= 0 {
		return errors.New("APP_ASK_RATE_PER_SECOND must be > 0")
	}
	if c.AskBurst < 1 {
		return errors.New("APP_ASK_BURST must be >= 1")
	}
	if c.LLMMaxTokens < 0 {
		return errors.New("LLM_MAX_TOKENS must be >= 0")
	}
	if c.PromptMaxContextChars < 0 {
		return errors.New("PROMPT_MAX_CONTEXT_CHARS must be >= 0")
	}
	return c.Retrieval().Validate()
}

// LLM returns the model client settings.
func (c Config) LLM() answer.LLMConfig {
	return answer.LLMConfig{
		Provider:    c.LLMProvider,
		Model:       c.LLMModel,
		Temperature: c.LLMTemperature,
		MaxTokens:   c.LLMMaxTokens,
		APIKey:      c.LLMAPIKey,
	}
}

// Neo4j returns the graph connection settings.
func (c Config) Neo4j() graph.Neo4jConfig {
	return graph.Neo4jConfig{
		URI:      c.Neo4jURI,
		Username: c.Neo4jUser,
		Password: c.Neo4jPassword,
		Database: c.Neo4jDatabase,
	}
}

// Retrieval returns the context builder settings.
func (c Config) Retrieval() retrieval.Config {
	rc := retrieval.DefaultConfig()
	rc.Mode = c.RetrievalMode
	rc.Limit = c.RetrievalLimit
	return rc
}

func apiKeyVar(p answer.Provider) string {
	if p == answer.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func wrap(err error) error {
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

func envOrDefault(key, fallback string) string {
	v := envTrimmed(key)
	if v == "" {
		return fallback
	}
	return v
}

// envTrimmed reads key with surrounding whitespace removed.
func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
