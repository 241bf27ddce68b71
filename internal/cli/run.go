package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/actionsum/focusgov/internal/config"
	"github.com/actionsum/focusgov/internal/daemon"
	"github.com/actionsum/focusgov/internal/database"
	"github.com/actionsum/focusgov/internal/governor"
	"github.com/actionsum/focusgov/internal/logging"
	"github.com/actionsum/focusgov/internal/throttle"
	"github.com/actionsum/focusgov/pkg/detector"
	"github.com/actionsum/focusgov/pkg/integrations/process"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the governor in the foreground",
	Long:  "Connect to the window manager and throttle the target process while it is not focused. This is also what focusgov does with no command.",
	Args:  cobra.NoArgs,
	RunE:  runGovernor,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func runGovernor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Logger

	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := dm.RemovePID(); err != nil {
			log.Warn("failed to remove PID file", zap.Error(err))
		}
	}()

	launcher := throttle.NewCommandLauncher(cfg.Throttle.Tool, cfg.Throttle.Limit)
	if err := launcher.Check(); err != nil {
		log.Warn("throttling tool not found, spawning will fail", zap.Error(err))
	}

	var recorder throttle.Recorder
	if cfg.History.Enabled {
		journal, closeJournal, err := openJournal(cfg, log)
		if err != nil {
			return err
		}
		defer closeJournal()
		recorder = journal
	}

	log.Info("starting focusgov",
		zap.String("target_class", cfg.Target.WindowClass),
		zap.String("target_process", cfg.Target.ProcessName),
		zap.String("tool", launcher.Tool()),
		zap.Int("limit", launcher.Limit()),
		zap.Bool("history", cfg.History.Enabled))

	ctrl := throttle.NewController(launcher, cfg.Throttle.StopTimeout, recorder, log)
	finder := process.NewFinder(process.NewSystemTable())
	reconciler := governor.NewReconciler(cfg.Target.WindowClass, cfg.Target.ProcessName, finder, ctrl, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := detector.Open(cfg.Transport.Kind, log)
	if err != nil {
		return err
	}
	defer source.Close()

	return governor.NewService(source, reconciler, ctrl, log).Run(ctx)
}

func openJournal(cfg *config.Config, log *zap.Logger) (*database.Journal, func(), error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	journal := database.NewJournal(database.NewRepository(db), cfg.Throttle.Tool, cfg.Throttle.Limit)
	if n, err := journal.Recover(); err != nil {
		log.Warn("failed to close abandoned sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("closed abandoned sessions", zap.Int64("count", n))
	}

	log.Info("history journal opened", zap.String("path", path))

	return journal, func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close history journal", zap.Error(err))
		}
	}, nil
}

// exists reports whether path names an existing file
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
