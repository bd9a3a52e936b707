package billaudit

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/verify"
)

// Option is a function that configures a Reconciler instance.
type Option func(*config) error

// config holds the assembled Reconciler configuration.
type config struct {
	logger     *zerolog.Logger
	now        func() time.Time
	classifier *product.Classifier
	verifier   *verify.Verifier
}

func defaultConfig() *config {
	return &config{
		now:        time.Now,
		classifier: product.NewClassifier(),
	}
}

func (r *reconciler) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(r.config); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger configures the logger for pipeline progress events.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithClock configures the clock for grace-period arithmetic.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}

// WithClassifier configures a custom product classifier, typically built
// from a rules file.
func WithClassifier(classifier *product.Classifier) Option {
	return func(c *config) error {
		c.classifier = classifier
		return nil
	}
}

// WithVerifier configures remote verification of flagged issues. Without
// one, the pipeline stops after the policy evaluation.
func WithVerifier(verifier *verify.Verifier) Option {
	return func(c *config) error {
		c.verifier = verifier
		return nil
	}
}
