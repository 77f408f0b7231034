package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/marker-ar-mcp/internal/config"
	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
	"github.com/ironsheep/marker-ar-mcp/internal/logging"
	"github.com/ironsheep/marker-ar-mcp/internal/marker"
	"github.com/ironsheep/marker-ar-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type serveCmd struct{}

type applyCmd struct {
	Frames    []string `arg:"positional,required" help:"frame images to process"`
	OutputDir string   `arg:"-o,--output-dir" help:"directory for processed frames (default: next to each input, suffixed -ar)"`
	DebugDir  string   `arg:"-d,--debug-dir" help:"write an annotated overlay per frame to this directory"`
	All       bool     `arg:"-a,--all" help:"also write frames with no replaced marker"`
}

type cli struct {
	Serve     *serveCmd `arg:"subcommand:serve" help:"run the MCP server on stdin/stdout (default)"`
	Apply     *applyCmd `arg:"subcommand:apply" help:"replace markers in frame files"`
	Templates string    `arg:"-t,--templates" help:"marker=picture pairs, comma separated; overrides MARKER_AR_TEMPLATES"`
	Workers   int       `arg:"-w,--workers" help:"batch worker count, 0 for one per CPU; overrides MARKER_AR_WORKERS" default:"-1"`
	LogLevel  string    `arg:"--log-level" help:"trace, debug, info, warn or error; overrides MARKER_AR_LOG_LEVEL"`
}

func (cli) Version() string {
	return fmt.Sprintf("marker-ar %s (built %s, commit %s)", Version, BuildTime, GitCommit)
}

func (cli) Description() string {
	return "marker-ar finds square fiducial markers in images and paints a replacement picture over each one.\n" +
		"Settings are read from MARKER_AR_* environment variables; flags override them."
}

func main() {
	var args cli
	p := arg.MustParse(&args)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		p.Fail(err.Error())
	}
	if args.Templates != "" {
		if cfg.Templates, err = config.ParseTemplates(args.Templates); err != nil {
			p.Fail(fmt.Sprintf("--templates: %v", err))
		}
	}
	if args.Workers >= 0 {
		cfg.Workers = args.Workers
	}
	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}

	// stdout carries the MCP protocol or the apply report
	log := logging.New(cfg.LogLevel, os.Stderr)
	server.Version = Version

	if args.Apply != nil {
		if err := runApply(cfg, args.Apply, log); err != nil {
			log.WithError(err).Fatal("apply failed")
		}
		return
	}
	if err := runServe(cfg, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func runServe(cfg *config.Config, log *logrus.Logger) error {
	log.WithFields(logrus.Fields{
		"version":   Version,
		"built":     BuildTime,
		"commit":    GitCommit,
		"templates": len(cfg.Templates),
	}).Info("starting marker-ar MCP server")

	srv := server.New(cfg.Pipeline, log)
	srv.SetWorkers(cfg.Workers)
	if len(cfg.Templates) > 0 {
		if err := srv.LoadTemplates(cfg.Templates); err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}
	}
	return srv.Run()
}

type frameReport struct {
	Path       string        `json:"path"`
	OutputPath string        `json:"output_path,omitempty"`
	DebugPath  string        `json:"debug_path,omitempty"`
	Result     marker.Result `json:"result"`
}

func runApply(cfg *config.Config, cmd *applyCmd, log *logrus.Logger) error {
	if len(cfg.Templates) == 0 {
		return fmt.Errorf("no templates: set --templates or %s", config.EnvTemplates)
	}

	cache := imaging.NewImageCache()
	templates, err := marker.LoadTemplates(cache, cfg.Templates, cfg.Pipeline.CanonicalSize)
	if err != nil {
		return err
	}
	m, err := marker.NewMatcher(templates, cfg.Pipeline.MatchThreshold, cfg.Pipeline.CanonicalSize)
	if err != nil {
		return err
	}
	pipeline, err := marker.New(cfg.Pipeline, m, log)
	if err != nil {
		return err
	}

	frames := make([]*image.NRGBA, len(cmd.Frames))
	for i, path := range cmd.Frames {
		img, err := cache.Load(path)
		if err != nil {
			return err
		}
		frames[i] = imaging.ToNRGBA(img)
		cache.Evict(path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := pipeline.ApplyBatch(ctx, frames, cfg.Workers, cmd.DebugDir != "")
	if err != nil {
		return err
	}

	for _, dir := range []string{cmd.OutputDir, cmd.DebugDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	reports := make([]frameReport, len(frames))
	for i, path := range cmd.Frames {
		res := results[i]
		reports[i] = frameReport{Path: path, Result: res}

		if res.Replaced() > 0 || cmd.All {
			out := outputPath(cmd.OutputDir, path)
			if err := imaging.Save(out, frames[i]); err != nil {
				return err
			}
			reports[i].OutputPath = out
		}
		if cmd.DebugDir != "" && res.Debug != nil {
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			out := filepath.Join(cmd.DebugDir, base+"-debug.png")
			if err := imaging.Save(out, res.Debug); err != nil {
				return err
			}
			reports[i].DebugPath = out
		}

		log.WithFields(logrus.Fields{
			"path":     path,
			"status":   res.Status,
			"replaced": res.Replaced(),
		}).Info("frame processed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// outputPath places the processed frame in dir, or beside the input with an
// -ar suffix when dir is empty.
func outputPath(dir, input string) string {
	if dir != "" {
		return server.OutputPath(dir, input)
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-ar.png"
}
