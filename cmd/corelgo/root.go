package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hupe1980/corelgo"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "corelgo",
		Short: "Learn certifiably optimal rule lists",
		Long: `corelgo runs a branch-and-bound search over rule lists built from
binary features and reports the list with the lowest regularized error,
optionally penalized by a group fairness metric.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(newLearnCmd(g), newConvertCmd(g))
	return cmd
}

// logger builds the run logger on the command's error stream.
func (g *globalFlags) logger(w io.Writer) (*corelgo.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(g.logFormat) {
	case "text":
		return corelgo.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return corelgo.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", g.logFormat)
	}
}
