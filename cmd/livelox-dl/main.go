package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"livelox_dl/internal/config"
	"livelox_dl/internal/downloader"
	"livelox_dl/internal/livelox"
	"livelox_dl/internal/logging"
	"livelox_dl/internal/output"
	"livelox_dl/internal/publish"
	"livelox_dl/internal/render"
	"livelox_dl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet(version.Name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <livelox viewer url>\n\n", version.Name)
		flags.PrintDefaults()
	}
	configFile := flags.StringP("config", "c", "", "path to a YAML config file")
	outDir := flags.StringP("output", "o", "", "directory for the rendered map")
	labels := flags.Bool("labels", false, "write control numbers next to the controls")
	crop := flags.Bool("crop", false, "crop the map to the courses")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.Name, version.Version)
		return 0
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 1
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if flags.Changed("output") {
		cfg.Output.Dir = *outDir
	}
	if flags.Changed("labels") {
		cfg.Render.Labels = *labels
	}
	if flags.Changed("crop") {
		cfg.Render.CropToRoutes = *crop
	}

	ctx, logger := logging.NewLogger(ctx, stderr, cfg.Log.Level, version.Version)
	logger.Info().Str("url", flags.Arg(0)).Msg("fetching map")

	client := livelox.NewClient(cfg.Livelox.BaseURL, cfg.HTTP.Timeout, cfg.HTTP.RequestsPerSecond)
	settings := downloader.Settings{
		Render: render.Options{
			Labels:       cfg.Render.Labels,
			CropToRoutes: cfg.Render.CropToRoutes,
			CropMargin:   cfg.Render.CropMargin,
		},
		Quality: cfg.Output.Quality,
	}
	if cfg.Discord.Enabled() {
		pub, err := publish.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			logger.Warn().Err(err).Msg("discord publishing disabled")
		} else {
			settings.Publisher = pub
		}
	}

	d := downloader.New(client, livelox.NewImageLoader(client), output.NewWriter(cfg.Output.Dir), settings)
	path, err := d.Run(ctx, flags.Arg(0))
	if err != nil {
		logger.Error().Err(err).Msg("download failed")
		fmt.Fprintln(stderr, "error:", downloader.Message(err))
		return 1
	}

	fmt.Fprintln(stdout, path)
	return 0
}
