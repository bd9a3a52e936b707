// Package cmd implements the billaudit CLI subcommands. Commands depend
// on a narrow AppContext interface rather than the concrete app type so
// they stay testable and free of import cycles.
package cmd

import (
	"github.com/rs/zerolog"

	"github.com/agencyops/billaudit"
	"github.com/agencyops/billaudit/pkg/product"
	"github.com/agencyops/billaudit/pkg/verify"
)

// AppContext defines what the commands need from the application.
type AppContext interface {
	Logger() *zerolog.Logger
	Format() string
	Reconciler(withVerify bool) (billaudit.Reconciler, error)
	Classifier() (*product.Classifier, error)
	Credentials() verify.Credentials
	Version() string
	Commit() string
	Date() string
}
