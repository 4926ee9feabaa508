package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/config"
	"github.com/buckleypaul/dwpanel/internal/console"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/dialog"
	"github.com/buckleypaul/dwpanel/internal/dropzone"
	"github.com/buckleypaul/dwpanel/internal/logging"
	"github.com/buckleypaul/dwpanel/internal/mounts"
	"github.com/buckleypaul/dwpanel/internal/pages"
	"github.com/buckleypaul/dwpanel/internal/poll"
	"github.com/buckleypaul/dwpanel/internal/session"
	"github.com/buckleypaul/dwpanel/internal/store"
	"github.com/buckleypaul/dwpanel/internal/view"
)

var (
	configPath = flag.String("config", "", "Path to an extra config JSON file")
	deviceURL  = flag.String("device", "", "Device base URL (default http://192.168.4.1)")
	logLevel   = flag.String("log-level", "", "Log level: debug|info|warn|error")
	logFile    = flag.String("log-file", "", "Log file path")
	consoleArg = flag.String("console", "", "USB console port, or \"auto\" to find the Pico")
	dropDir    = flag.String("drop-dir", "", "Folder watched for .dsk files to upload")
	startTab   = flag.String("tab", "config", "Initial tab: config|status|terminal|drives|files")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: dwpanel [flags] [command]

Commands:
  (none)               run the dashboard
  ports                list serial ports
  backup <file.yaml>   save the device configuration to a file
  restore <file.yaml>  validate a backup and send it to the device
  report <file.html>   write an HTML status snapshot
  init                 write the effective settings to %s

Flags:
`, config.GlobalPath())
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg := loadConfig()

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := device.NewClient(cfg.DeviceURL, &http.Client{})

	if args := flag.Args(); len(args) > 0 {
		if err := runCommand(ctx, cfg, client, args); err != nil {
			logger.Errorw("command failed", "command", args[0], "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runDashboard(ctx, cfg, client, logger); err != nil {
		logger.Errorw("dashboard exited", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers flags over the config files.
func loadConfig() config.Config {
	cfg := config.Load(*configPath)
	cfg.LogLevel = logging.EnvLogLevel(cfg.LogLevel)
	if *deviceURL != "" {
		cfg.DeviceURL = *deviceURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *consoleArg != "" {
		cfg.ConsolePort = *consoleArg
	}
	if *dropDir != "" {
		cfg.DropDir = *dropDir
	}
	cfg.DeviceURL = strings.TrimRight(cfg.DeviceURL, "/")
	return cfg
}

func runDashboard(ctx context.Context, cfg config.Config, client *device.Client, logger *zap.SugaredLogger) error {
	initial, ok := view.Parse(*startTab)
	if !ok {
		return fmt.Errorf("unknown tab %q", *startTab)
	}

	var history pages.History
	if cfg.HistoryPath != "" {
		st, err := store.Open(cfg.HistoryPath)
		if err != nil {
			logger.Warnw("history disabled", "path", cfg.HistoryPath, "error", err)
		} else {
			defer st.Close()
			history = st
		}
	}

	var drops <-chan dropzone.Batch
	if cfg.DropDir != "" {
		w, err := dropzone.New(cfg.DropDir, dropzone.DefaultQuiet, logger)
		if err != nil {
			return err
		}
		if drops, err = w.Start(ctx); err != nil {
			return err
		}
	}

	con := pages.ConsoleOptions{Port: resolveConsole(cfg.ConsolePort, logger), BaudRate: cfg.ConsoleBaudRate}
	if con.Port != "" {
		c := console.New()
		defer c.Disconnect()
		con.Console = c
	}

	state := session.New()
	tracker := mounts.NewTracker()
	deps := pages.Deps{
		Ctx:         ctx,
		Device:      client,
		DeviceURL:   cfg.DeviceURL,
		Session:     state,
		Mounts:      tracker,
		History:     history,
		Log:         logger,
		SettleDelay: cfg.SettleDelay(),
	}

	pageMap := map[view.Tab]app.Page{
		view.Config:   pages.NewConfigPage(deps),
		view.Status:   pages.NewStatusPage(),
		view.Terminal: pages.NewTerminalPage(deps, con),
		view.Drives:   pages.NewDrivesPage(),
		view.Files:    pages.NewFilesPage(deps, drops, cfg.DropDir),
	}

	model := app.New(pageMap, app.Options{
		DeviceURL: cfg.DeviceURL,
		Initial:   initial,
		Session:   state,
		Scheduler: poll.New(ctx, state, logger),
		Dialog:    dialog.New(state),
		Mounts:    tracker,
		Log:       logger,
		StatusFetch: func(ctx context.Context) (any, error) {
			return client.Status(ctx)
		},
		SDFetch: func(ctx context.Context) (any, error) {
			return client.SDStatus(ctx)
		},
		StatusInterval: cfg.PollInterval(),
		SDInterval:     cfg.SDPollInterval(),
	})

	logger.Infow("dashboard starting", "device", cfg.DeviceURL, "tab", initial.String())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// resolveConsole turns "auto" into the first Pico port found.
func resolveConsole(port string, logger *zap.SugaredLogger) string {
	if port != "auto" {
		return port
	}
	ports, err := console.ListPorts()
	if err != nil {
		logger.Warnw("listing serial ports failed", "error", err)
		return ""
	}
	pico, ok := console.FindPico(ports)
	if !ok {
		logger.Infow("no Pico console found")
		return ""
	}
	return pico.Name
}
