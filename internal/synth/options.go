package synth

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/swagger2postman/internal/logging"
)

// Defaults are the placeholder values written into synthesized requests.
type Defaults struct {
	Long     int64
	Integer  int32
	PageSize int
}

func DefaultDefaults() Defaults {
	return Defaults{Long: 1, Integer: 1, PageSize: 20}
}

// Environment is one deployment target. URL is host[:port] without scheme.
type Environment struct {
	URL string
}

// EnvironmentConfig names the collection and selects the environments to
// emit. A nil environment is left out of the output entirely.
type EnvironmentConfig struct {
	CollectionName string
	Local          *Environment
	Remote         *Environment
}

func (c EnvironmentConfig) validate() error {
	if strings.TrimSpace(c.CollectionName) == "" {
		return &ConfigError{Field: "collectionName", Message: "must not be empty"}
	}
	if c.Local == nil && c.Remote == nil {
		return &ConfigError{Message: "neither a local nor a remote environment is configured"}
	}
	return nil
}

// AmbiguityPolicy decides what happens to an operation declaring both a body
// and form-data parameters.
type AmbiguityPolicy string

const (
	// RejectAmbiguous fails the build with AmbiguousParametersError.
	RejectAmbiguous AmbiguityPolicy = "reject"
	// PreferFormData keeps both Content-Type headers and lets the form-data
	// body replace the JSON body, logging a warning.
	PreferFormData AmbiguityPolicy = "prefer-form"
)

// ParseAmbiguityPolicy accepts "reject" or "prefer-form"; empty means reject.
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch AmbiguityPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectAmbiguous:
		return RejectAmbiguous, nil
	case PreferFormData:
		return PreferFormData, nil
	}
	return "", &ConfigError{Field: "ambiguity", Message: "must be one of: reject, prefer-form"}
}

type Options struct {
	Defaults  Defaults
	Ambiguity AmbiguityPolicy
	Overrides []Override
	Clock     func() time.Time
	Logger    *slog.Logger
}

type Option func(*Options)

func WithDefaults(d Defaults) Option { return func(o *Options) { o.Defaults = d } }

func WithAmbiguityPolicy(p AmbiguityPolicy) Option { return func(o *Options) { o.Ambiguity = p } }

// WithOverrides replaces the body override table.
func WithOverrides(ov []Override) Option {
	return func(o *Options) { o.Overrides = append([]Override(nil), ov...) }
}

// WithClock sets the time source read once per build.
func WithClock(now func() time.Time) Option { return func(o *Options) { o.Clock = now } }

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

func newOptions(opts ...Option) Options {
	o := Options{
		Defaults:  DefaultDefaults(),
		Ambiguity: RejectAmbiguous,
		Overrides: DefaultOverrides(),
		Clock:     time.Now,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

func (o Options) validate() error {
	if o.Defaults.PageSize <= 0 {
		return &ConfigError{Field: "defaultPageSize", Message: "must be > 0"}
	}
	if _, err := ParseAmbiguityPolicy(string(o.Ambiguity)); err != nil {
		return err
	}
	return nil
}
