package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/access"
	"github.com/labinot-bajgora/ECK-safety/internal/courses"
	"github.com/labinot-bajgora/ECK-safety/internal/logging"
	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/store"
)

// services are the components every command builds over one store.
type services struct {
	store     *store.Store
	dbPath    string
	catalog   *courses.Catalog
	ledger    *seats.Ledger
	recorder  *results.Recorder
	validator *access.Validator
	logger    *slog.Logger
}

// openServices opens the store and wires the components. logger may be
// nil, in which case the CLI logs to stderr.
func openServices(cmd *cobra.Command, logger *slog.Logger) (*services, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	if logger == nil {
		logger = logging.New(os.Stderr, cfg.Level())
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "path", dbPath)

	return &services{
		store:     st,
		dbPath:    dbPath,
		catalog:   courses.NewCatalog(st.Courses(), courses.WithLogger(logger)),
		ledger:    seats.NewLedger(st.AccessCodes(), st.Courses(), seats.WithLogger(logger)),
		recorder:  results.NewRecorder(st, results.WithPrefix(cfg.CompletionPrefix), results.WithLogger(logger)),
		validator: access.NewValidator(st.AccessCodes(), st.Courses(), access.WithLogger(logger)),
		logger:    logger,
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}
