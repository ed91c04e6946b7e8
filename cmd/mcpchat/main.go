// Package main provides the mcpchat CLI entry point.
// mcpchat is a terminal chat client for an MCP-enabled chat backend reached over a websocket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mcpchat/internal/app"
	"mcpchat/internal/config"
	"mcpchat/internal/eventloop"
	"mcpchat/internal/logger"
	"mcpchat/internal/shell"
	"mcpchat/internal/tui"
	"mcpchat/internal/version"
)

// v holds flag bindings; config.Load layers environment and files on top of it.
var v = viper.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcpchat",
	Short: "Terminal chat client for MCP-enabled backends",
	Long: `mcpchat connects to a chat backend over a websocket and streams its answers,
reasoning steps and tool results into the terminal.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// tuiCmd is the explicit form of the default behavior
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the full-screen chat interface",
	RunE:  runTUI,
}

// shellCmd starts the line-oriented interface
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the line-oriented chat shell",
	Long:  `Start a readline shell that prints the conversation as a scrolling log.`,
	RunE:  runShell,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetDetailedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyEndpoint, config.DefaultEndpoint, "Websocket URL of the chat backend")
	flags.Duration(config.KeyReconnectDelay, config.DefaultReconnectDelay, "Delay before reconnecting after the connection drops")
	flags.String(config.KeyConfigDir, "", "Directory for preferences, history and config.yaml")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")

	for _, key := range []string{config.KeyEndpoint, config.KeyReconnectDelay, config.KeyConfigDir, config.KeyLogLevel, config.KeyLogFile} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration and configures logging. The TUI owns the
// terminal, so its logs go to a file unless one was given.
func loadConfig(fullScreen bool) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	cfg, err := config.Load(v, wd)
	if err != nil {
		return nil, err
	}

	logFile := cfg.LogFile
	if logFile == "" && fullScreen {
		logFile = cfg.DefaultLogPath()
	}
	if err := logger.Configure(cfg.LogLevel, logFile); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger.Info("Starting mcpchat", "version", version.Version, "mode", "tui", "url", cfg.Endpoint)

	ctx, cancel := signalContext()
	defer cancel()

	poster := &tui.ProgramPoster{}
	a, err := app.New(app.Options{Config: cfg, Poster: poster})
	if err != nil {
		return err
	}

	program := tea.NewProgram(tui.New(ctx, a),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	poster.Attach(program)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runShell(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	logger.Info("Starting mcpchat", "version", version.Version, "mode", "shell", "url", cfg.Endpoint)

	ctx, cancel := signalContext()
	defer cancel()

	loop := eventloop.New(64)
	a, err := app.New(app.Options{Config: cfg, Poster: loop})
	if err != nil {
		return err
	}

	sh, err := shell.New(a, loop, cfg)
	if err != nil {
		return err
	}
	return sh.Run(ctx)
}
