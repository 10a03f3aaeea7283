package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/extractors"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/ocr"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, name := range apiKeyVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5.0, cfg.Extract.YTolerance)
	assert.Equal(t, 200.0, cfg.Extract.AlignmentThreshold)
	assert.Equal(t, 100, cfg.Extract.ProgressEvery)
	assert.Equal(t, ocr.ModeMessages, cfg.OCR.ParsedMode())
	assert.Equal(t, []string{"portfolio"}, cfg.OCR.Skip)

	policy := cfg.OCR.RetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 5*time.Second, policy.BaseDelay)
	assert.Equal(t, 30*time.Second, policy.RateLimitDelay)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	clearKeys(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extract:
  y_tolerance: 3.5
  overwrite: true
ocr:
  mode: transcript
  page_delay: 2s
  skip: [portfolio, draft]
embeddings:
  limit: 5
`), 0o644))

	t.Setenv("PDFMESSAGES_OCR_MODEL", "gemini-2.0-flash")
	t.Setenv("GOOGLE_API_KEY", "from-google")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 3.5, cfg.Extract.YTolerance)
	assert.True(t, cfg.Extract.Overwrite)
	assert.Equal(t, 200.0, cfg.Extract.AlignmentThreshold)
	assert.Equal(t, ocr.ModeTranscript, cfg.OCR.ParsedMode())
	assert.Equal(t, 2*time.Second, cfg.OCR.PageDelay)
	assert.Equal(t, []string{"portfolio", "draft"}, cfg.OCR.Skip)
	assert.Equal(t, "gemini-2.0-flash", cfg.OCR.Model)
	assert.Equal(t, 5, cfg.Embeddings.Limit)
	assert.Equal(t, "from-google", cfg.APIKey)
}

func TestNewViperMissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	// Without an explicit file the search may come up empty
	t.Chdir(t.TempDir())
	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "vision", cfg.OCR.Engine)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"tolerance", func(c *Config) { c.Extract.YTolerance = 0 }},
		{"mode", func(c *Config) { c.OCR.Mode = "poetry" }},
		{"engine", func(c *Config) { c.OCR.Engine = "abacus" }},
		{"attempts", func(c *Config) { c.OCR.MaxAttempts = 0 }},
		{"delay", func(c *Config) { c.OCR.PageDelay = -time.Second }},
		{"limit", func(c *Config) { c.Embeddings.Limit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestAPIKeyFromEnvOrder(t *testing.T) {
	clearKeys(t)
	assert.Empty(t, APIKeyFromEnv())

	t.Setenv("OPENAI_API_KEY", "openai")
	assert.Equal(t, "openai", APIKeyFromEnv())

	t.Setenv("GEMINI_API_KEY", "gemini")
	assert.Equal(t, "gemini", APIKeyFromEnv())
}

func TestLoadDotEnv(t *testing.T) {
	clearKeys(t)
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	local := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(env, []byte("GEMINI_API_KEY=from-dotenv\n"), 0o644))
	require.NoError(t, os.WriteFile(local, []byte("GEMINI_API_KEY=from-local\nGOOGLE_API_KEY=local-google\n"), 0o644))

	require.NoError(t, LoadDotEnv(env, local, filepath.Join(dir, "missing.env")))

	// The first file wins; later files only fill gaps
	assert.Equal(t, "from-dotenv", os.Getenv("GEMINI_API_KEY"))
	assert.Equal(t, "local-google", os.Getenv("GOOGLE_API_KEY"))
}

func TestReconstructorFromConfig(t *testing.T) {
	cfg := Default().Extract
	cfg.AlignmentThreshold = 100
	lines := cfg.Reconstructor().Classify([]pdf.Fragment{{X: 150, Y: 700, Text: "sent"}})
	require.Len(t, lines, 1)
	assert.Equal(t, extractors.Right, lines[0].Side)
}
