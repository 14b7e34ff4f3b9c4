package module

import (
	"path/filepath"
	"time"

	"lifesync/internal/platform/config"
	"lifesync/internal/platform/net/http/bind"
)

// LLMOptions configures the chat completion client
type LLMOptions struct {
	URL         string `validate:"required,url"`
	Key         string
	Model       string        `validate:"required"`
	Temperature float64       `validate:"gte=0,lte=2"`
	MaxTokens   int           `validate:"min=1"`
	Timeout     time.Duration `validate:"gt=0"`
	Retries     int           `validate:"min=1,max=20"` // the engine reads 0 as its default
	RetryBase   time.Duration `validate:"gte=0"`
	RateRetries int
}

// Options holds configuration for the summarize module
type Options struct {
	Enabled bool
	// SourceDir is the sync output folder the documents are read from
	SourceDir  string `validate:"required"`
	SummaryDir string `validate:"required"`
	Prompt     string
	Interval   time.Duration `validate:"gte=0"`

	LLM LLMOptions
}

// FromConfig reads CORE_SUMMARY_* and SERVICE_LLM_* options. sourceDir is
// the sync output folder
func FromConfig(cfg config.Conf, sourceDir string) Options {
	sc := cfg.Prefix("CORE_SUMMARY_")
	lc := cfg.Prefix("SERVICE_LLM_")

	sourceDir = filepath.Clean(sourceDir)
	return Options{
		Enabled:    sc.MayBool("ENABLED", false),
		SourceDir:  sourceDir,
		SummaryDir: filepath.Clean(sc.MayString("DIR", filepath.Join(sourceDir, "summaries"))),
		Prompt:     sc.MayString("PROMPT", ""),
		Interval:   sc.MayDuration("INTERVAL", 6*time.Hour),
		LLM: LLMOptions{
			URL:         lc.MayURL("URL", "https://api.openai.com/v1"),
			Key:         lc.MayString("KEY", ""),
			Model:       lc.MayString("MODEL", "gpt-4o-mini"),
			Temperature: sc.MayFloat64("TEMPERATURE", 0.3),
			MaxTokens:   sc.MayInt("MAX_TOKENS", 1500),
			Timeout:     lc.MayDuration("TIMEOUT", 2*time.Minute),
			Retries:     lc.MayInt("RETRIES", 5),
			RetryBase:   lc.MayDuration("RETRY_BASE", time.Second),
			RateRetries: lc.MayInt("RATE_RETRIES", 20),
		},
	}
}

// Validate checks option ranges
func (o Options) Validate() error { return bind.Validate(o) }
