package module

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"lifesync/internal/platform/config"
	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/net/http/bind"
)

// Sort orders for entries within a day
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// LifelogOptions configures the remote API client
type LifelogOptions struct {
	URL         string `validate:"required,url"`
	Key         string
	PageSize    int           `validate:"min=1,max=100"`
	Timeout     time.Duration `validate:"gt=0"`
	Retries     int           `validate:"min=1,max=20"` // the engine reads 0 as its default
	RetryBase   time.Duration `validate:"gte=0"`
	RateRetries int           // negative retries 429 until canceled
}

// Options holds configuration for the sync module
type Options struct {
	OutputDir  string        `validate:"required"`
	Interval   time.Duration `validate:"gte=0"`
	Workers    int           `validate:"min=1,max=64"`
	Delay      time.Duration `validate:"gte=0"`
	DayRetries int           `validate:"min=0,max=10"`
	Overwrite  bool
	Order      string `validate:"oneof=asc desc"`
	StartDate  time.Time

	// Location buckets entries into days; Timezone is the API hint, empty to omit.
	// Without a hint the API works in UTC and so does Location
	Location *time.Location `validate:"required"`
	Timezone string
	Debug    bool

	Lifelog LifelogOptions
}

// FromConfig reads CORE_SYNC_* and SERVICE_LIFELOG_* options
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("CORE_SYNC_")
	lc := cfg.Prefix("SERVICE_LIFELOG_")

	loc := sc.MayLocation("TIMEZONE", time.Local)
	hint := ""
	if sc.MayBool("USE_TIMEZONE", true) {
		hint = zoneName(loc)
	}
	if hint == "" && loc != time.UTC {
		logger.Named("sync").Warn().Str("zone", loc.String()).Msg("no timezone hint for the lifelog API, bucketing days in UTC")
		loc = time.UTC
	}
	o := Options{
		OutputDir:  filepath.Clean(sc.MayString("OUTPUT_DIR", "./lifelogs")),
		Interval:   sc.MayDuration("INTERVAL", time.Hour),
		Workers:    sc.MayInt("WORKERS", 5),
		Delay:      sc.MayDuration("DELAY", 250*time.Millisecond),
		DayRetries: sc.MayInt("DAY_RETRIES", 2),
		Overwrite:  sc.MayBool("OVERWRITE", false),
		Order:      sc.MayEnum("ORDER", OrderAsc, OrderAsc, OrderDesc),
		Location:   loc,
		Timezone:   hint,
		Debug:      sc.MayBool("DEBUG", false),
		Lifelog: LifelogOptions{
			URL:         lc.MayURL("URL", "https://api.limitless.ai/v1"),
			Key:         lc.MayString("KEY", ""),
			PageSize:    lc.MayInt("PAGE_SIZE", 10),
			Timeout:     lc.MayDuration("TIMEOUT", 30*time.Second),
			Retries:     lc.MayInt("RETRIES", 5),
			RetryBase:   lc.MayDuration("RETRY_BASE", time.Second),
			RateRetries: lc.MayInt("RATE_RETRIES", 20),
		},
	}
	// configured days are civil dates in the sync zone
	if d := sc.MayDate("START_DATE", time.Time{}); !d.IsZero() {
		o.StartDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}
	return o
}

// zoneName returns an IANA name for loc. Local is resolved through TZ or
// the /etc/localtime link; "" when neither names a zone
func zoneName(loc *time.Location) string {
	if loc != time.Local {
		return loc.String()
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			return target[i+len("zoneinfo/"):]
		}
	}
	return ""
}

// Validate checks option ranges
func (o Options) Validate() error { return bind.Validate(o) }
