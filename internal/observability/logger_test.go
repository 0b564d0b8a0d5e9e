package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		cfg := DefaultLoggingConfig()
		logger := NewLogger(cfg)

		// Logger should be valid (non-zero)
		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with debug level", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "stdout",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with console format", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with pretty format", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "info",
			Format: "pretty",
			Output: "stderr",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"FATAL", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"PANIC", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestWithPipelineContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithPipelineContext(logger, "run-123", "large language models")
	enriched.Info().Msg("pipeline started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "run-123", logEntry["run_id"])
	assert.Equal(t, "large language models", logEntry["query"])
	assert.Equal(t, "pipeline started", logEntry["message"])
}

func TestWithPublicationContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithPublicationContext(logger, "pub-123", "2301.12345")
	enriched.Info().Msg("publication processed")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "pub-123", logEntry["publication_id"])
	assert.Equal(t, "2301.12345", logEntry["arxiv_id"])
}

func TestWithSourceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithSourceContext(logger, "SemanticScholar", "paper")
	enriched.Info().Msg("lookup started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "SemanticScholar", logEntry["source"])
	assert.Equal(t, "paper", logEntry["endpoint"])
}

func TestWithRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithRequestContext(logger, "req-abc", "GET", "/api/v1/publications")
	enriched.Info().Msg("request handled")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "req-abc", logEntry["request_id"])
	assert.Equal(t, "GET", logEntry["method"])
	assert.Equal(t, "/api/v1/publications", logEntry["path"])
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// Chain multiple context enrichments
	enriched := WithPipelineContext(logger, "run-1", "neural networks")
	enriched = WithPublicationContext(enriched, "pub-1", "2301.00001")
	enriched = WithSourceContext(enriched, "arXiv", "query")
	enriched.Info().Msg("chained context")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	// All fields should be present
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, "neural networks", logEntry["query"])
	assert.Equal(t, "pub-1", logEntry["publication_id"])
	assert.Equal(t, "2301.00001", logEntry["arxiv_id"])
	assert.Equal(t, "arXiv", logEntry["source"])
	assert.Equal(t, "query", logEntry["endpoint"])
}
