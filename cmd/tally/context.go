package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tally/internal/apiclient"
	"tally/internal/config"
	"tally/internal/entrylock"
	"tally/internal/formstate"
	"tally/internal/journal"
	"tally/internal/logging"
	"tally/internal/notifications"
	"tally/internal/session"
	"tally/internal/submit"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
	runID      string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		runID:      uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, c.runID)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) groups() []formstate.PoliticalGroup {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	groups := make([]formstate.PoliticalGroup, 0, len(cfg.Election.PoliticalGroups))
	for _, g := range cfg.Election.PoliticalGroups {
		groups = append(groups, formstate.PoliticalGroup{Number: g.Number, Name: g.Name})
	}
	return groups
}

// entryFlags selects the data entry a command works on.
type entryFlags struct {
	pollingStation int64
	entryNumber    int
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64VarP(&f.pollingStation, "polling-station", "p", 0, "Polling station identifier")
	cmd.PersistentFlags().IntVarP(&f.entryNumber, "entry", "e", 1, "Data entry number (1 or 2)")
}

func (f *entryFlags) validate() error {
	if f.pollingStation <= 0 {
		return errors.New("--polling-station is required")
	}
	if f.entryNumber != 1 && f.entryNumber != 2 {
		return fmt.Errorf("--entry must be 1 or 2, got %d", f.entryNumber)
	}
	return nil
}

// entryEnv is everything a command needs to drive one loaded data entry.
type entryEnv struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *session.Store
	coordinator *submit.Coordinator
	journal     *journal.Store
	notifier    notifications.Service
}

// notify delivers a lifecycle notice for the entry. Delivery failures are
// logged and never fail the command.
func (env *entryEnv) notify(ctx context.Context, send func(context.Context, notifications.Entry) error) {
	state := env.store.State()
	entry := notifications.Entry{
		ElectionID:       state.ElectionID,
		PollingStationID: state.PollingStationID,
		EntryNumber:      state.EntryNumber,
		Progress:         state.Form.Progress(),
	}
	if err := send(ctx, entry); err != nil {
		logging.WarnWithContext(env.logger, "notification not delivered", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (env *entryEnv) notifyError(ctx context.Context, err error, operation string) {
	if nerr := env.notifier.NotifyError(ctx, err, operation); nerr != nil {
		logging.WarnWithContext(env.logger, "notification not delivered", "notification_failed",
			logging.Error(nerr),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// withEntry locks the entry, opens the journal, loads the entry from the
// server, and restores any stored draft before calling fn.
func (c *commandContext) withEntry(ctx context.Context, flags entryFlags, fn func(*entryEnv) error) error {
	if err := flags.validate(); err != nil {
		return err
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock, err := entrylock.Acquire(cfg.LockDir(), flags.pollingStation, flags.entryNumber)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release entry lock", logging.Error(err))
		}
	}()

	j, err := journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	draft, err := j.LoadDraft(ctx, flags.pollingStation, flags.entryNumber)
	if err != nil {
		logger.Warn("stored draft ignored", logging.Error(err))
		draft = nil
	}

	entryLogger := logging.ForEntry(logger, flags.pollingStation, flags.entryNumber)
	store := session.NewStore(session.New(cfg.Election.ID, flags.pollingStation, flags.entryNumber, c.groups()), entryLogger)
	detach := journal.Attach(store, j, c.runID, entryLogger)
	defer detach()

	coordinator := submit.NewCoordinator(store, apiclient.NewFromConfig(cfg, logger), logger)
	if err := coordinator.Load(ctx); err != nil {
		return fmt.Errorf("load data entry: %w", err)
	}
	if draft != nil {
		if err := store.Dispatch(session.SetCache{Cache: draft}); err != nil {
			logger.Warn("stored draft does not fit this entry", logging.Error(err))
		}
	}

	return fn(&entryEnv{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		coordinator: coordinator,
		journal:     j,
		notifier:    notifications.NewService(cfg),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
