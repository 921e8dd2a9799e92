// Command gesture-sig reduces recorded gyro traces to signatures offline,
// for tuning thresholds and checking whether two recordings would match.
//
// Usage:
//
//	gesture-sig [flags] key.csv [attempt.csv]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/gesture.vault/internal/config"
	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/gyro"
	"github.com/banshee-data/gesture.vault/internal/traceplot"
	"github.com/banshee-data/gesture.vault/internal/vault"
)

var (
	configPath = flag.String("config", "", "Tuning config JSON (defaults when empty)")
	order      = flag.String("order", "", "Override canonical ordering: axis or lexicographic")
	calibrate  = flag.Int("calibrate", 0, "Estimate bias from this many leading samples, which must be still (0 disables)")
	filter     = flag.Bool("filter", false, "Apply the configured low-pass filter")
	plotOut    = flag.String("plot", "", "Write a plot of each trace; the first trace uses this path, later ones add a suffix")
)

type traceResult struct {
	Path   string
	Buffer *gesture.Buffer
	Result gesture.Result
}

// conditioning selects the optional preprocessing applied before reduction.
// The zero value reduces the trace exactly as recorded.
type conditioning struct {
	calibrate int
	filter    bool
}

// reduce replays a trace, optionally conditioned, and reduces it to a
// signature. A recorded trace already has the device bias removed, so
// calibration is only meaningful for raw captures with a still lead-in.
func reduce(ctx context.Context, path string, cfg *config.TuningConfig, p gesture.Params, cond conditioning) (*traceResult, error) {
	samples, err := gyro.LoadTraceFile(path)
	if err != nil {
		return nil, err
	}

	var src gyro.Source = gyro.NewReplaySource(samples, nil, 0)
	if cond.calibrate > 0 || cond.filter {
		c := &gyro.Conditioned{Source: src}
		if cond.calibrate > 0 {
			if c.Bias, err = gyro.Calibrate(ctx, src, min(cond.calibrate, len(samples))); err != nil {
				return nil, fmt.Errorf("%s: calibrate: %w", path, err)
			}
		}
		if cond.filter {
			c.Filter = gyro.NewLowPass(cfg.GetFilterCoefficient())
		}
		c.Reset()
		src = c
	}

	b := gesture.NewBuffer(cfg.GetBufferCapacity())
	for !b.Full() {
		r, err := src.ReadAxes(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b.Append(r.X, r.Y, r.Z)
	}
	if len(samples) > b.Cap() {
		log.Printf("%s: %d samples, only the first %d are used", path, len(samples), b.Cap())
	}
	return &traceResult{Path: path, Buffer: b, Result: gesture.Process(b, p)}, nil
}

func printResult(w io.Writer, tr *traceResult) {
	fmt.Fprintf(w, "%s (%d samples)\n", tr.Path, tr.Result.Samples)
	for _, a := range gesture.Axes {
		pat := tr.Result.Pattern(a)
		fmt.Fprintf(w, "  %s: %-12s ends=%v\n", a, pat.String(), pat.EndIndices)
	}
	fmt.Fprintf(w, "  stream:    %q\n", tr.Result.Stream.String())
	fmt.Fprintf(w, "  signature: %q\n", tr.Result.Signature.String())
}

func plotPath(base string, i int) string {
	if i == 0 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), i+1, ext)
}

func run(ctx context.Context, args []string, w io.Writer) (bool, error) {
	if len(args) < 1 || len(args) > 2 {
		return false, errors.New("expected one or two trace files")
	}

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			return false, err
		}
	}
	p := cfg.Params()
	if *order != "" {
		o, err := gesture.ParseOrdering(*order)
		if err != nil {
			return false, err
		}
		p.Ordering = o
	}
	fmt.Fprintf(w, "params: %s\n", p)

	if *calibrate < 0 {
		return false, fmt.Errorf("-calibrate must not be negative, got %d", *calibrate)
	}
	cond := conditioning{calibrate: *calibrate, filter: *filter}

	results := make([]*traceResult, 0, len(args))
	for i, path := range args {
		tr, err := reduce(ctx, path, cfg, p, cond)
		if err != nil {
			return false, err
		}
		printResult(w, tr)
		results = append(results, tr)

		if *plotOut != "" {
			out := plotPath(*plotOut, i)
			if err := traceplot.Save(out, tr.Buffer, tr.Result, p, filepath.Base(path)); err != nil {
				return false, err
			}
			fmt.Fprintf(w, "  plot: %s\n", out)
		}
	}

	if len(results) < 2 {
		return true, nil
	}
	v := vault.New(p.Ordering)
	if _, err := v.Enroll(results[0].Result.Signature.String(), results[0].Path); err != nil {
		return false, err
	}
	matched, err := v.Verify(results[1].Result.Signature.String())
	if err != nil {
		return false, err
	}
	if matched {
		fmt.Fprintln(w, "MATCH")
	} else {
		fmt.Fprintln(w, "NO MATCH")
	}
	return matched, nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] key.csv [attempt.csv]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ok, err := run(context.Background(), flag.Args(), os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		os.Exit(1)
	}
}
