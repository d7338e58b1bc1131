package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOpts struct {
	logLevel  string
	logPretty bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "noticed",
		Short:         "Project and relay event notices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	root.PersistentFlags().BoolVar(&opts.logPretty, "log-pretty", false, "Human readable console logs")

	root.AddCommand(newServeCmd(opts), newProjectCmd(opts))
	return root
}

// newLogger builds the process logger. flagLevel wins over cfgLevel.
func newLogger(w io.Writer, flagLevel, cfgLevel string, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	for _, s := range []string{cfgLevel, flagLevel} {
		if s == "" {
			continue
		}
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
