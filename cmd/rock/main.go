// Package main provides the CLI entrypoint for rock.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/rock/internal/audio"
	"github.com/verte-zerg/rock/internal/config"
	"github.com/verte-zerg/rock/internal/console"
	"github.com/verte-zerg/rock/internal/device"
	"github.com/verte-zerg/rock/internal/indicator"
	"github.com/verte-zerg/rock/internal/logging"
	"github.com/verte-zerg/rock/internal/model"
	"github.com/verte-zerg/rock/internal/store"
	"github.com/verte-zerg/rock/internal/tracker"
)

const (
	defaultCompletion         = tracker.DefaultCompletion
	defaultPollInterval       = device.DefaultPollInterval
	defaultPulsePeriod        = tracker.DefaultPulsePeriod
	defaultSessionPulsePeriod = tracker.DefaultSessionPulsePeriod
	defaultRollover           = device.DefaultRollover
	defaultSweepCycles        = device.DefaultSweepCycles
	defaultFade               = time.Second
	defaultLogLevel           = "info"
)

var (
	runDB                 string
	runAssets             string
	runPlayer             string
	runPoll               time.Duration
	runCompletion         time.Duration
	runPulsePeriod        time.Duration
	runSessionPulsePeriod time.Duration
	runRollover           string
	runSweepCycles        int
	runFade               time.Duration
	runConsole            bool
	runLogLevel           string
	runLogFile            string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rock",
		Short:         "Daily meditation ritual tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDeviceCmd,
	}

	rootCmd.Flags().StringVar(&runDB, "db", "", "journal database path (default: XDG data dir)")
	rootCmd.Flags().StringVar(&runAssets, "assets", "", "audio assets directory (default: XDG data dir)")
	rootCmd.Flags().StringVar(&runPlayer, "player", "", "audio player command, e.g. \"aplay -q\" (default: silent)")
	rootCmd.Flags().DurationVar(&runPoll, "poll", defaultPollInterval, "completion poll interval")
	rootCmd.Flags().DurationVar(&runCompletion, "completion", defaultCompletion, "session length that completes the day")
	rootCmd.Flags().DurationVar(&runPulsePeriod, "pulse-period", defaultPulsePeriod, "indicator fade time while waiting")
	rootCmd.Flags().DurationVar(&runSessionPulsePeriod, "session-pulse-period", defaultSessionPulsePeriod, "indicator fade time while meditating")
	rootCmd.Flags().StringVar(&runRollover, "rollover", defaultRollover, "cron schedule of the daily rollover")
	rootCmd.Flags().IntVar(&runSweepCycles, "sweep-cycles", defaultSweepCycles, "startup sweep cycles")
	rootCmd.Flags().DurationVar(&runFade, "fade", defaultFade, "audio fade out on stop")
	rootCmd.Flags().BoolVar(&runConsole, "console", false, "emulate the strip and buttons in the terminal")
	rootCmd.Flags().StringVar(&runLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&runLogFile, "log-file", "", "JSON log file (default with --console: XDG data dir)")

	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runDeviceCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyDurationConfig(cmd, "completion", &runCompletion, fileCfg.Tracker.Completion)
	applyDurationConfig(cmd, "poll", &runPoll, fileCfg.Tracker.PollInterval)
	applyDurationConfig(cmd, "pulse-period", &runPulsePeriod, fileCfg.Tracker.PulsePeriod)
	applyDurationConfig(cmd, "session-pulse-period", &runSessionPulsePeriod, fileCfg.Tracker.SessionPulsePeriod)
	applyStringConfig(cmd, "rollover", &runRollover, fileCfg.Schedule.Rollover)
	applyStringConfig(cmd, "assets", &runAssets, fileCfg.Audio.AssetsDir)
	applyStringConfig(cmd, "player", &runPlayer, fileCfg.Audio.Player)
	applyDurationConfig(cmd, "fade", &runFade, fileCfg.Audio.Fade)
	applyIntConfig(cmd, "sweep-cycles", &runSweepCycles, fileCfg.Device.SweepCycles)
	applyStringConfig(cmd, "log-level", &runLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &runLogFile, fileCfg.Log.File)

	cfg := model.Config{
		Completion:         runCompletion,
		PollInterval:       runPoll,
		PulsePeriod:        runPulsePeriod,
		SessionPulsePeriod: runSessionPulsePeriod,
		Rollover:           runRollover,
		SweepCycles:        runSweepCycles,
		AssetsDir:          runAssets,
		Player:             runPlayer,
		Fade:               runFade,
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = config.DefaultAssetsDir()
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if runConsole && !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("--console requires a terminal")
	}
	logCfg := logging.Config{Level: runLogLevel, File: runLogFile, Console: os.Stderr}
	if runConsole {
		// The console owns the terminal.
		logCfg.Console = nil
		if logCfg.File == "" {
			logCfg.File = config.DefaultLogPath()
		}
	}
	logger, logCloser, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeQuietly(logCloser, "log file")

	dbPath := runDB
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeQuietly(st, "db")

	backend, err := newBackend(cfg.Player)
	if err != nil {
		return err
	}
	board := indicator.NewBoard()
	var driver indicator.Driver = board
	if !runConsole {
		driver = indicator.NewLoggingDriver(board, logger)
	}
	strip := indicator.New(driver)
	cue := audio.New(backend, cfg.AssetsDir, cfg.Fade, logger)
	tr := tracker.New(tracker.SQLiteJournal(st), strip, cue, tracker.Options{
		Completion:         cfg.Completion,
		PulsePeriod:        cfg.PulsePeriod,
		SessionPulsePeriod: cfg.SessionPulsePeriod,
		Logger:             logger,
	})
	loop, err := device.New(tr, strip, device.Options{
		PollInterval: cfg.PollInterval,
		Rollover:     cfg.Rollover,
		SweepCycles:  cfg.SweepCycles,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Str("db", dbPath).Str("assets", cfg.AssetsDir).Msg("starting")

	if !runConsole {
		return loop.Run(ctx)
	}
	return runWithConsole(ctx, loop, board, tr, logger)
}

func runWithConsole(ctx context.Context, loop *device.Loop, board *indicator.Board, tr *tracker.Tracker, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	button := device.NewButton(device.DefaultHoldTime, loop.Post)
	ui := console.NewModel(board, tr, button, loop.Post, device.DefaultHoldTime)
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))

	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
		program.Quit()
	}()

	_, uiErr := program.Run()
	interrupted := ctx.Err() != nil
	cancel()
	if err := <-errCh; err != nil {
		return err
	}
	if uiErr != nil && !interrupted {
		return fmt.Errorf("failed to run console: %w", uiErr)
	}
	logger.Info().Msg("console closed")
	return nil
}

func newBackend(player string) (audio.Backend, error) {
	if strings.TrimSpace(player) == "" {
		return audio.NewSilentBackend(), nil
	}
	backend, err := audio.NewExecBackend(player)
	if err != nil {
		return nil, fmt.Errorf("failed to set up audio player: %w", err)
	}
	return backend, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rock configuration
# Uncomment a value to enable it. CLI flags override config values.

[tracker]
# completion = %q              # Session length that completes the day
# poll-interval = %q           # Completion poll interval while meditating
# pulse-period = %q            # Indicator fade time while waiting
# session-pulse-period = %q    # Indicator fade time while meditating

[schedule]
# rollover = %q        # Cron schedule of the daily rollover

[audio]
# assets-dir = %q
# player = "aplay -q"          # Player command; empty keeps audio silent
# fade = %q                    # Fade out on stop

[device]
# sweep-cycles = %d            # Startup sweep cycles

[log]
# level = %q
# file = %q
`,
		defaultCompletion.String(),
		defaultPollInterval.String(),
		defaultPulsePeriod.String(),
		defaultSessionPulsePeriod.String(),
		defaultRollover,
		config.DefaultAssetsDir(),
		defaultFade.String(),
		defaultSweepCycles,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Completion <= 0 {
		return fmt.Errorf("--completion must be > 0")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("--poll must be > 0")
	}
	if cfg.PulsePeriod <= 0 || cfg.SessionPulsePeriod <= 0 {
		return fmt.Errorf("pulse periods must be > 0")
	}
	if cfg.SweepCycles < 0 {
		return fmt.Errorf("--sweep-cycles must be >= 0")
	}
	if cfg.Fade < 0 {
		return fmt.Errorf("--fade must be >= 0")
	}
	if strings.TrimSpace(cfg.Rollover) == "" {
		return fmt.Errorf("--rollover must not be empty")
	}
	return nil
}

func closeQuietly(c io.Closer, name string) {
	if err := c.Close(); err != nil {
		logErrf("failed to close %s: %v\n", name, err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
