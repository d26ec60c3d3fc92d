package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/voxcore/assistant-sdk/internal/api"
	"github.com/voxcore/assistant-sdk/internal/archive"
	"github.com/voxcore/assistant-sdk/internal/auditstore"
	"github.com/voxcore/assistant-sdk/internal/dialogux"
	"github.com/voxcore/assistant-sdk/internal/directive"
	"github.com/voxcore/assistant-sdk/internal/durable"
	"github.com/voxcore/assistant-sdk/internal/focus"
	"github.com/voxcore/assistant-sdk/internal/logger"
	"github.com/voxcore/assistant-sdk/internal/metrics"
	"github.com/voxcore/assistant-sdk/internal/telemetry"
	grpctransport "github.com/voxcore/assistant-sdk/internal/transport/grpc"
	"github.com/voxcore/assistant-sdk/pkg/config"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the directive/focus/dialog-UX coordination core",
	Long: `Run the voice-assistant client coordination core: the Directive
Router and Processor, the Focus Manager, and the Dialog UX Aggregator,
plus whichever optional durability/audit/archive/diagnostics/transport
infrastructure the config file enables.

By default the core runs in the background (daemon mode). Use
--foreground to run in the foreground for debugging or when managed by
a process supervisor.

Examples:
  # Run in background (default)
  vassistctl serve

  # Run in foreground
  vassistctl serve --foreground

  # Run with a custom config file
  vassistctl serve --config /etc/vassist/config.yaml

  # Override a setting via environment variable
  VASSIST_LOGGING_LEVEL=DEBUG vassistctl serve --foreground`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	serveCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/vassist/vassist.pid)")
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/vassist/vassist.log)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "vassist",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "vassist",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	cmd.Println("vassist - voice-assistant client coordination SDK")
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))

	var metricsRecorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		metricsRecorder = metrics.New(prometheus.NewRegistry())
		logger.Info("prometheus metrics enabled", "port", cfg.Metrics.Port)
	}

	var durableStore *durable.Store
	if cfg.Durable.Enabled {
		durableStore, err = durable.Open(cfg.Durable.Path)
		if err != nil {
			return fmt.Errorf("failed to open durable store: %w", err)
		}
		defer durableStore.Close()
		logger.Info("durable processor WAL enabled", "path", cfg.Durable.Path)
	}

	var auditStore *auditstore.Store
	if cfg.AuditStore.Enabled {
		auditStore, err = auditstore.Open(toAuditStoreConfig(cfg.AuditStore))
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer auditStore.Close()
		logger.Info("audit store enabled", "driver", cfg.AuditStore.Driver)
	}

	router := directive.NewRouter()
	processor := directive.NewProcessor(router)
	defer processor.Shutdown()

	fm := focus.NewManager(toFocusChannels(cfg.Channels.Physical), toFocusChannels(cfg.Channels.Virtual), nil, nil)
	defer fm.Close()

	var uxMetrics dialogux.MetricsRecorder
	if metricsRecorder != nil {
		uxMetrics = metricsRecorder
	}
	agg := dialogux.New(dialogux.Timers{
		ThinkingToIdleMs:      cfg.Timers.ThinkingToIdleMs,
		ShortThinkingToIdleMs: cfg.Timers.ShortThinkingToIdleMs,
		ListeningToIdleMs:     cfg.Timers.ListeningToIdleMs,
	}, uxMetrics)
	defer agg.Close()

	if durableStore != nil {
		processor.SetDurableStore(durableStore)
	}
	if auditStore != nil {
		fm.SetAuditRecorder(auditStore)
		agg.SetAuditRecorder(auditStore)
	}

	logger.Info("focus manager ready", "channels", len(fm.Snapshot()))

	var archiveUploader *archive.Uploader
	if cfg.Archive.Enabled {
		archiveUploader, err = archive.NewFromConfig(ctx, archive.Config{
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			KeyPrefix: cfg.Archive.Prefix,
			Interval:  cfg.Archive.Interval,
		}, archiveSnapshotSource(fm, processor))
		if err != nil {
			return fmt.Errorf("failed to initialize archive uploader: %w", err)
		}
		archiveUploader.Start()
		defer archiveUploader.Stop()
		logger.Info("archive uploader enabled", "bucket", cfg.Archive.Bucket, "interval", cfg.Archive.Interval)
	}

	var diagServer *api.Server
	if cfg.Diagnostics.Enabled {
		var jwtService *api.JWTService
		if cfg.Diagnostics.JWTSecret != "" {
			jwtService, err = api.NewJWTService(api.JWTConfig{Secret: cfg.Diagnostics.JWTSecret})
			if err != nil {
				return fmt.Errorf("failed to initialize diagnostics JWT service: %w", err)
			}
		}

		port, err := diagnosticsPort(cfg.Diagnostics.Addr)
		if err != nil {
			return fmt.Errorf("invalid diagnostics address %q: %w", cfg.Diagnostics.Addr, err)
		}

		diagServer = api.NewServer(api.Config{Port: port}, fm, processor, agg, jwtService)
	}

	var transportServer *grpctransport.Server
	if cfg.Transport.Enabled {
		transportServer = grpctransport.NewServer(grpctransport.Config{Addr: cfg.Transport.Addr}, processor)
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		if diagServer == nil {
			<-ctx.Done()
			serverDone <- nil
			return
		}
		serverDone <- diagServer.Start(ctx)
	}()

	transportDone := make(chan error, 1)
	go func() {
		if transportServer == nil {
			<-ctx.Done()
			transportDone <- nil
			return
		}
		transportDone <- transportServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("coordination core is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("diagnostics server shutdown error", "error", err)
			return err
		}
		if err := <-transportDone; err != nil {
			logger.Error("grpc transport shutdown error", "error", err)
			return err
		}
		logger.Info("coordination core stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("diagnostics server error", "error", err)
			return err
		}
		logger.Info("coordination core stopped")

	case err := <-transportDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("grpc transport error", "error", err)
			return err
		}
		logger.Info("coordination core stopped")
	}

	return nil
}

func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.DefaultConfigPath()
	}
	return "defaults"
}

func diagnosticsPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

// archiveSnapshotSource builds the periodic JSON snapshot the archive
// uploader ships to S3 from the current focus channel snapshot and
// directive processor stats. The dialog UX aggregator keeps no event
// log of its own, so UX transition history in the snapshot is whatever
// the audit store has recorded independently, not something this
// source reads back out.
func archiveSnapshotSource(fm *focus.Manager, processor *directive.Processor) archive.SnapshotSource {
	return func(ctx context.Context) (archive.Snapshot, error) {
		channels := fm.Snapshot()
		events := make([]archive.Event, 0, len(channels))
		for _, c := range channels {
			events = append(events, archive.Event{
				Kind:      "focus_snapshot",
				Channel:   c.Name,
				ToState:   c.Focus.String(),
				Detail:    c.InterfaceName,
				CreatedAt: time.Now(),
			})
		}

		stats := processor.Stats()
		events = append(events, archive.Event{
			Kind:      "processor_stats",
			Detail:    fmt.Sprintf("dialogRequestId=%s handlingQueue=%d cancellingQueue=%d", stats.DialogRequestID, stats.HandlingQueueDepth, stats.CancellingQueueDepth),
			CreatedAt: time.Now(),
		})

		return archive.Snapshot{
			TakenAt:     time.Now(),
			FocusEvents: events,
		}, nil
	}
}

func toFocusChannels(cs []config.ChannelConfig) []focus.ChannelConfig {
	out := make([]focus.ChannelConfig, len(cs))
	for i, c := range cs {
		out[i] = focus.ChannelConfig{Name: c.Name, Priority: c.Priority}
	}
	return out
}

func toAuditStoreConfig(cfg config.AuditStoreConfig) *auditstore.Config {
	ac := &auditstore.Config{Type: auditstore.DriverType(cfg.Driver)}
	if ac.Type == auditstore.DriverSQLite {
		ac.SQLite.Path = cfg.DSN
	}
	return ac
}

// startDaemon starts the coordination core as a background daemon
// process, mirroring the teacher's foreground-reexec-with-Setsid
// pattern.
func startDaemon() error {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	vassistStateDir := filepath.Join(stateDir, "vassist")

	if err := os.MkdirAll(vassistStateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = filepath.Join(vassistStateDir, "vassist.pid")
	}

	if _, err := os.Stat(pidPath); err == nil {
		pidData, err := os.ReadFile(pidPath)
		if err == nil {
			var pid int
			if _, err := fmt.Sscanf(string(pidData), "%d", &pid); err == nil {
				if process, err := os.FindProcess(pid); err == nil {
					if err := process.Signal(syscall.Signal(0)); err == nil {
						return fmt.Errorf("vassist is already running (PID %d)", pid)
					}
				}
			}
		}
		_ = os.Remove(pidPath)
	}

	logPath := logFile
	if logPath == "" {
		logPath = filepath.Join(vassistStateDir, "vassist.log")
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	daemonArgs := []string{"serve", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	cmd := exec.Command(executable, daemonArgs...)

	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	cmd.Stdout = logFileHandle
	cmd.Stderr = logFileHandle
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = logFileHandle.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = logFileHandle.Close()

	fmt.Printf("vassist started in background (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nSend SIGTERM (or the owning process a Ctrl+C) to stop it")

	return nil
}
