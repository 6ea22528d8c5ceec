package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/akihikokuroda/typematch/internal/config"
	"github.com/akihikokuroda/typematch/internal/input"
	"github.com/akihikokuroda/typematch/internal/matcher"
)

type options struct {
	configPath     string
	debug          bool
	noTransitivity bool
	format         string
	trace          bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "typematch [flags] input.yaml",
		Short: "Match incomplete classes against complete ones",
		Long: `typematch reads complete and incomplete class descriptions from a YAML
document and prints, for every incomplete class, the complete type it
structurally matches.`,
		Example: `  # Print the substitution as YAML
  typematch classes.yaml

  # Log every variable and solver decision
  typematch --debug --trace classes.yaml`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("debug") {
				cfg.Debug = opts.debug
			}
			if flags.Changed("no-transitivity") {
				cfg.Transitivity = !opts.noTransitivity
			}
			if flags.Changed("format") {
				cfg.Format = opts.format
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.trace, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.noTransitivity, "no-transitivity", false, "Do not generate transitivity constraints")
	cmd.Flags().StringVarP(&opts.format, "format", "f", config.FormatYAML, "Output format: yaml or text")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Write the solver's rejected hints to stderr")
	return cmd
}

func run(ctx context.Context, cfg config.Config, trace bool, path string, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if cfg.Debug {
		// logr V(1) maps to slog level -1.
		level = slog.Level(-1)
	}
	log := logr.FromSlogHandler(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	ctx = logr.NewContext(ctx, log)

	classes, err := input.NewLoader().LoadFile(ctx, path)
	if err != nil {
		return err
	}

	options := []matcher.Option{matcher.WithTransitivity(cfg.Transitivity)}
	if trace {
		options = append(options, matcher.WithSearchTrace(stderr))
	}
	m, err := matcher.NewMatcher(classes, options...)
	if err != nil {
		return err
	}
	solution, err := m.Solve(ctx)
	if err != nil {
		return err
	}
	return write(stdout, cfg.Format, solution)
}

func write(w io.Writer, format string, solution matcher.Solution) error {
	switch format {
	case config.FormatText:
		names := make([]string, 0, len(solution))
		for name := range solution {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if _, err := fmt.Fprintf(w, "%s = %s\n", name, solution[name]); err != nil {
				return err
			}
		}
		return nil
	case config.FormatYAML:
		out, err := yaml.Marshal(map[string]string(solution))
		if err != nil {
			return errors.Wrap(err, "failed to encode solution")
		}
		_, err = w.Write(out)
		return err
	}
	return errors.Errorf("unknown format %q", format)
}
