package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/app"
	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/logging"
	"github.com/labinot-bajgora/ECK-safety/internal/screens/admin"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Start the training kiosk",
	Long: `Start the training kiosk. An invite link or access code skips typing
the code on the entry screen; without one an unfinished session on this
terminal is resumed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(cmd)
	},
}

func init() {
	addLearnFlags(learnCmd)
}

func addLearnFlags(cmd *cobra.Command) {
	cmd.Flags().String("invite", "", "Invite link, e.g. https://host/invite/PEJA or https://host/?code=PEJA")
	cmd.Flags().String("code", "", "Access code to prefill")
	cmd.Flags().Bool("no-splash", false, "Skip the welcome animation")
}

// runLearn opens the store, builds dependencies, and launches the TUI.
func runLearn(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	logger, logFile, err := logging.NewFile(cfg, dbPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	svc, err := openServices(cmd, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if seeded, err := svc.catalog.Seed(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	} else if seeded {
		logger.Info("built-in course installed")
	}

	invite, _ := cmd.Flags().GetString("invite")
	if code, _ := cmd.Flags().GetString("code"); code != "" && invite == "" {
		invite = "code=" + code
	}
	noSplash, _ := cmd.Flags().GetBool("no-splash")

	ctrl := flow.NewController(
		svc.validator,
		svc.recorder,
		flow.NewSession(svc.store.Sessions(), logger),
		flow.WithAdminPIN(cfg.AdminPIN),
		flow.WithLogger(logger),
	)

	return app.Run(ctx, app.Options{
		Flow: ctrl,
		Admin: admin.Deps{
			Ledger:        svc.ledger,
			Results:       svc.recorder,
			Catalog:       svc.catalog,
			InviteBaseURL: cfg.InviteBaseURL,
			ExportDir:     ".",
			Logger:        logger,
		},
		Invite:      invite,
		SkipWelcome: noSplash,
		Logger:      logger,
	})
}
