// Package cli implements the scurve command line: planning and sampling of
// moves, PNG plots, and an interactive slider view.
package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/plot/vg"

	"github.com/npillmayer/scurve"
	"github.com/npillmayer/scurve/planner"
	"github.com/npillmayer/scurve/preset"
	"github.com/npillmayer/scurve/profile"
	"github.com/npillmayer/scurve/render"
)

// Handle runs the command line and exits on error.
func Handle() {
	if err := App().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// App returns the root command.
func App() *cli.Command {
	return &cli.Command{
		Name:  "scurve",
		Usage: "Plan and visualize jerk-limited point-to-point moves",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: "File holding the limits last chosen interactively",
				Value: preset.DefaultPath(),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
				return ctx, errors.Wrap(err, "invalid log level")
			}
			slog.SetLogLoggerLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			planCommand(),
			sampleCommand(),
			plotCommand(),
			{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Adjust the limits with sliders and watch the profile change",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return interactive(limits(cmd), cmd.String("preset"))
				},
			},
			{
				Name:  "prompt",
				Usage: "Ask for the four limits and save them as preset",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					l, err := promptLimits(limits(cmd))
					if err != nil {
						return err
					}
					if err := preset.Save(cmd.String("preset"), l); err != nil {
						return err
					}
					return printPlan(cmd.Root().Writer, l, false)
				},
			},
		},
	}
}

// === Limits ================================================================

var limitFlags = []struct {
	name, usage string
	set         func(*scurve.Limits, float64)
}{
	{"jerk", "Maximum jerk", func(l *scurve.Limits, x float64) { l.JerkMax = x }},
	{"accel", "Maximum acceleration", func(l *scurve.Limits, x float64) { l.AccelMax = x }},
	{"vel", "Maximum velocity", func(l *scurve.Limits, x float64) { l.VelMax = x }},
	{"dist", "Distance to travel", func(l *scurve.Limits, x float64) { l.Distance = x }},
}

func withLimitFlags(flags ...cli.Flag) []cli.Flag {
	for _, f := range limitFlags {
		flags = append(flags, &cli.Float64Flag{
			Category: "Limits",
			Name:     f.name,
			Usage:    f.usage + " (defaults to preset)",
		})
	}
	return flags
}

// limits are the preset limits, overridden by explicitly set flags.
func limits(cmd *cli.Command) scurve.Limits {
	l, err := preset.Load(cmd.String("preset"))
	if err != nil {
		slog.Warn("could not load preset, using defaults", "error", err)
	}
	for _, f := range limitFlags {
		if cmd.IsSet(f.name) {
			f.set(&l, cmd.Float64(f.name))
		}
	}
	return l
}

// === plan ==================================================================

func planCommand() *cli.Command {
	return &cli.Command{
		Name:    "plan",
		Aliases: []string{"p"},
		Usage:   "Print the segment schedule of a move",
		Flags: withLimitFlags(&cli.BoolFlag{
			Category: "Output",
			Name:     "json",
			Usage:    "Print the schedule as JSON",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return printPlan(cmd.Root().Writer, limits(cmd), cmd.Bool("json"))
		},
	}
}

type planOutput struct {
	Limits   scurve.Limits     `json:"limits"`
	Shape    string            `json:"shape"`
	Duration float64           `json:"duration"`
	Segments []profile.Segment `json:"segments"`
}

func printPlan(w io.Writer, l scurve.Limits, asJSON bool) error {
	p, tm, err := planner.PlanShape(l)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(planOutput{
			Limits:   l,
			Shape:    tm.Shape.String(),
			Duration: p.Duration(),
			Segments: p.Segments(),
		})
	}
	fmt.Fprintf(w, "limits %s: %s move\n", l, tm.Shape)
	fmt.Fprint(w, p)
	return nil
}

// === sample ================================================================

func sampleCommand() *cli.Command {
	return &cli.Command{
		Name:    "sample",
		Aliases: []string{"s"},
		Usage:   "Evaluate a move at evenly spaced times",
		Flags: withLimitFlags(
			&cli.IntFlag{
				Category: "Sampling",
				Name:     "samples",
				Aliases:  []string{"n"},
				Usage:    "Number of sample times from 0 to the duration",
				Value:    profile.DefaultSamples,
			},
			&cli.StringFlag{
				Category: "Output",
				Name:     "format",
				Aliases:  []string{"f"},
				Usage:    "Output format, csv or json",
				Value:    "csv",
			},
			&cli.StringFlag{
				Category: "Output",
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file, stdout if empty",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, _, err := sample(limits(cmd), int(cmd.Int("samples")))
			if err != nil {
				return err
			}
			return withOutput(cmd, func(w io.Writer) error {
				return writeSeries(w, s, cmd.String("format"))
			})
		},
	}
}

func sample(l scurve.Limits, n int) (profile.Series, planner.Shape, error) {
	p, tm, err := planner.PlanShape(l)
	if err != nil {
		return profile.Series{}, tm.Shape, err
	}
	s, err := profile.Sample(p, n)
	return s, tm.Shape, err
}

func withOutput(cmd *cli.Command, write func(io.Writer) error) error {
	path := cmd.String("output")
	if path == "" {
		return write(cmd.Root().Writer)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create output file")
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "could not close output file")
}

func writeSeries(w io.Writer, s profile.Series, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return json.NewEncoder(w).Encode(s)
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"time", "jerk", "acceleration", "velocity", "position"}); err != nil {
			return err
		}
		ftoa := func(x float64) string { return strconv.FormatFloat(x, 'g', 10, 64) }
		for i := 0; i < s.Len(); i++ {
			row := []string{ftoa(s.Time[i]), ftoa(s.Jerk[i]), ftoa(s.Accel[i]), ftoa(s.Vel[i]), ftoa(s.Pos[i])}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// === plot ==================================================================

func plotCommand() *cli.Command {
	return &cli.Command{
		Name:  "plot",
		Usage: "Render jerk, acceleration, velocity and position of a move to PNG",
		Flags: withLimitFlags(
			&cli.IntFlag{
				Category: "Sampling",
				Name:     "samples",
				Aliases:  []string{"n"},
				Usage:    "Number of sample times from 0 to the duration",
				Value:    profile.DefaultSamples,
			},
			&cli.StringFlag{
				Category: "Output",
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "PNG file to write",
				Value:    "scurve.png",
			},
			&cli.Float64Flag{
				Category: "Output",
				Name:     "width",
				Usage:    "Image width in inches",
				Value:    8,
			},
			&cli.Float64Flag{
				Category: "Output",
				Name:     "height",
				Usage:    "Image height in inches",
				Value:    10,
			},
			&cli.IntFlag{
				Category: "Output",
				Name:     "dpi",
				Value:    150,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l := limits(cmd)
			s, shape, err := sample(l, int(cmd.Int("samples")))
			if err != nil {
				return err
			}
			opt := render.Options{
				Width:  vg.Length(cmd.Float64("width")) * vg.Inch,
				Height: vg.Length(cmd.Float64("height")) * vg.Inch,
				DPI:    int(cmd.Int("dpi")),
			}
			title := fmt.Sprintf("%s move %s", shape, l)
			err = withOutput(cmd, func(w io.Writer) error {
				return render.WritePNG(w, s, title, opt)
			})
			if err == nil {
				slog.Info("wrote plot", "file", cmd.String("output"))
			}
			return err
		},
	}
}
