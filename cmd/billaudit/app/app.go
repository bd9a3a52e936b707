// Package app provides the application context and dependency management
// for the billaudit CLI: configuration, logging, and lazy construction of
// the reconciliation engine and the platform API verifier.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agencyops/billaudit"
	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/verify"
)

// App represents the billaudit application with all its dependencies. It
// centralizes configuration, logging, and the reconciler instance.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Reconciler instance (lazy-initialized, singleton)
	mu         sync.Mutex
	reconciler billaudit.Reconciler
}

// New creates a new App instance with the given version information.
func New(version, commit, date string) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("config", "loading configuration", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Format returns the requested output format, defaulting to table.
func (a *App) Format() string {
	if a.config.Format == "" {
		return "table"
	}
	return a.config.Format
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Credentials returns the platform API credentials from the environment.
func (a *App) Credentials() verify.Credentials {
	return verify.Credentials{
		Username: a.config.APIUsername,
		Password: a.config.APIPassword,
		Endpoint: a.config.APIEndpoint,
	}
}

// Classifier builds the product classifier, loading the rules override
// file when one is configured.
func (a *App) Classifier() (*product.Classifier, error) {
	if a.config.RulesFile == "" {
		return product.NewClassifier(), nil
	}
	rules, err := product.LoadRulesFile(a.config.RulesFile)
	if err != nil {
		return nil, err
	}
	return product.NewClassifier(rules...), nil
}

// Verifier builds a verifier from the configured credentials. It returns
// nil when no credentials are set; verification is strictly optional.
func (a *App) Verifier() (*verify.Verifier, error) {
	creds := a.Credentials()
	if !creds.Configured() {
		return nil, nil
	}

	opts := []verify.Option{}
	if a.config.VerifyDelay > 0 {
		opts = append(opts, verify.WithDelay(a.config.VerifyDelay))
	}
	return verify.NewVerifier(verify.NewClient(creds), opts...), nil
}

// Reconciler returns the reconciler instance, creating it lazily. The
// verifier is wired in only when credentials are configured and the
// caller asked for verification.
func (a *App) Reconciler(withVerify bool) (billaudit.Reconciler, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reconciler != nil {
		return a.reconciler, nil
	}

	classifier, err := a.Classifier()
	if err != nil {
		return nil, err
	}

	opts := []billaudit.Option{
		billaudit.WithLogger(a.logger),
		billaudit.WithClassifier(classifier),
	}

	if withVerify {
		verifier, err := a.Verifier()
		if err != nil {
			return nil, err
		}
		if verifier == nil {
			return nil, errors.ErrCredentialsRequired
		}
		opts = append(opts, billaudit.WithVerifier(verifier))
	}

	reconciler, err := billaudit.New(opts...)
	if err != nil {
		return nil, err
	}

	a.reconciler = reconciler
	return reconciler, nil
}
