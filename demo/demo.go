// demo/demo.go
package demo

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/llm"
	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/metrics"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	labelColor = color.New(color.FgCyan)
	errorColor = color.New(color.FgRed)
)

// Env is everything a demo binary needs
type Env struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Log      *logrus.Entry
	Shutdown *ShutdownManager
	Out      io.Writer

	metrics bool
}

// Setup loads .env, then an optional YAML file over the environment, and builds the logger.
// Flags are parsed here so binaries may declare their own before calling it.
func Setup(name string) (*Env, context.Context, context.CancelFunc, error) {
	configPath := flag.String("config", "", "optional YAML config file")
	envFile := flag.String("env", ".env", "dotenv file to load")
	showMetrics := flag.Bool("metrics", false, "print Prometheus metrics to stderr on exit")
	flag.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		return nil, nil, nil, err
	}

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadInto(cfg, *configPath); err != nil {
			return nil, nil, nil, err
		}
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logging.Component(logger, name)

	sm, ctx, cancel := NewShutdownManager(context.Background(), log)
	return &Env{
		Config:   cfg,
		Logger:   logger,
		Log:      log,
		Shutdown: sm,
		Out:      os.Stdout,
		metrics:  *showMetrics,
	}, ctx, cancel, nil
}

// Model builds a chat model from params, logging through the demo logger
func (e *Env) Model(params config.ModelParams, opts ...llm.Option) (llm.ChatModel, error) {
	opts = append([]llm.Option{llm.WithLogger(e.Log)}, opts...)
	return llm.New(params, opts...)
}

// Close releases registered resources and prints metrics when asked to
func (e *Env) Close() {
	if err := e.Shutdown.Shutdown(); err != nil {
		e.Log.WithError(err).Warn("shutdown")
	}
	if e.metrics {
		if err := metrics.WriteText(os.Stderr); err != nil {
			e.Log.WithError(err).Warn("failed to write metrics")
		}
	}
}

// Section prints a styled header
func (e *Env) Section(title string) {
	fmt.Fprintln(e.Out, sectionStyle.Render("=== "+title+" ==="))
}

// Field prints a labelled value
func (e *Env) Field(label string, value interface{}) {
	fmt.Fprintf(e.Out, "%s %v\n", labelColor.Sprint(label+":"), value)
}

// Box prints text inside a rounded border
func (e *Env) Box(text string) {
	fmt.Fprintln(e.Out, boxStyle.Render(text))
}

// Error prints a caught error without stopping the demo
func (e *Env) Error(err error) {
	fmt.Fprintln(e.Out, errorColor.Sprintf("Error: %v", err))
}

// Fatal logs err, releases resources and exits non-zero
func (e *Env) Fatal(err error) {
	e.Log.WithError(err).Error("demo failed")
	e.Close()
	os.Exit(1)
}

// Exit reports a setup failure before a logger exists
func Exit(err error) {
	fmt.Fprintln(os.Stderr, errorColor.Sprintf("setup failed: %v", err))
	os.Exit(1)
}
