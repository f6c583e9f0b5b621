package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randquik/randquik/cmd/version"
	"github.com/randquik/randquik/internal/benchmark"
	"github.com/randquik/randquik/internal/cipher"
	"github.com/randquik/randquik/internal/orchestrator"
	"github.com/randquik/randquik/internal/pipeline"
	"github.com/randquik/randquik/internal/randerr"
	"github.com/randquik/randquik/internal/seed"
	"github.com/randquik/randquik/internal/sizeparse"
)

// RootCmd is RandQuik's single action command: it has one verb -
// generate bytes - so flags are bound directly on the root command
// instead of a generate subcommand. "version" remains a subcommand.
var RootCmd = &cobra.Command{
	Use:   "randquik",
	Short: "High-throughput cryptographic random-byte generator",
	Long: `RandQuik produces a deterministic, multi-gigabyte/second stream of
cipher-grade pseudorandom bytes from a short seed, to a file, block
device, or standard output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var flags struct {
	seed      string
	length    string
	output    string
	threads   int
	alg       string
	dry       bool
	seek      string
	iseek     string
	oseek     string
	benchmark bool
	quiet     bool
	verbose   int
}

func init() {
	f := RootCmd.Flags()
	f.StringVarP(&flags.seed, "seed", "s", "", "printable seed; if omitted, 16 random alphanumerics are generated")
	f.StringVarP(&flags.length, "len", "l", "", "total bytes to produce (e.g. 1g, 100mi, 10sect); omit for infinite")
	f.StringVarP(&flags.output, "output", "o", "", "output path; '-' or omitted means stdout")
	f.IntVarP(&flags.threads, "threads", "t", 1, "worker count; 0 selects the single-threaded path")
	f.StringVarP(&flags.alg, "alg", "a", cipher.DefaultName, "cipher algorithm")
	f.BoolVar(&flags.dry, "dry", false, "generate but skip writes (for throughput measurement)")
	f.StringVar(&flags.seek, "seek", "", "shorthand for both --iseek and --oseek")
	f.StringVar(&flags.iseek, "iseek", "", "start the keystream at this byte offset")
	f.StringVar(&flags.oseek, "oseek", "", "start writing at this output offset")
	f.BoolVar(&flags.benchmark, "benchmark", false, "run the benchmark matrix (forbids --seed, --seek)")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress and summary")
	f.CountVarP(&flags.verbose, "verbose", "v", "stackable: -v shows I/O stats, -vv shows per-worker stats")

	RootCmd.AddCommand(version.NewVersionCommand())
}

func runRoot(cmd *cobra.Command, _ []string) error {
	c, err := cipher.Lookup(flags.alg)
	if err != nil {
		return randerr.New(randerr.InvalidArgument, "selecting cipher", err)
	}

	if flags.benchmark {
		if cmd.Flags().Changed("seed") {
			return randerr.New(randerr.InvalidArgument, "cannot specify --seed in benchmark mode", nil)
		}
		if flags.seek != "" || flags.iseek != "" || flags.oseek != "" {
			return randerr.New(randerr.InvalidArgument, "cannot use seek options in benchmark mode", nil)
		}
		return runBenchmarkMode(cmd, c)
	}

	seedStr, generated, err := resolveSeed()
	if err != nil {
		return err
	}
	key, err := seed.DeriveKey(seedStr, c.KeySize())
	if err != nil {
		return randerr.New(randerr.InvalidArgument, "deriving key", err)
	}

	iseek, oseek, err := parseSeeks(flags.output)
	if err != nil {
		return randerr.New(randerr.InvalidArgument, "parsing seek", err)
	}

	hasTotal := flags.length != ""
	var total int64
	if hasTotal {
		total, err = sizeparse.Parse(flags.length, flags.output)
		if err != nil {
			return randerr.New(randerr.InvalidArgument, "parsing length", err)
		}
	}

	action := "wrote"
	if flags.dry {
		action = "generated"
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := orchestrator.Run(ctx, orchestrator.Config{
		Output:         flags.output,
		HasTotal:       hasTotal,
		Total:          total,
		ISeek:          iseek,
		OSeek:          oseek,
		Key:            key,
		Cipher:         c,
		Workers:        flags.threads,
		Dry:            flags.dry,
		Quiet:          flags.quiet,
		Action:         action,
		SeedForDisplay: seedStr,
		LenFlag:        flags.length,
		GeneratedSeed:  generated,
	})
	if err != nil {
		return err
	}

	printResult(cmd, result)

	if result.Interrupted {
		return errInterrupted
	}
	return nil
}

// errInterrupted carries no message of its own - the summary line
// already told the user - so Execute maps it to exit code 1 silently.
var errInterrupted = fmt.Errorf("interrupted")

func printResult(cmd *cobra.Command, result pipeline.RunResult) {
	showSummary := !flags.quiet || flags.verbose >= 1 || result.Interrupted
	if showSummary {
		fmt.Fprint(cmd.ErrOrStderr(), result.Summary(flags.verbose, isTerminalStderr()))
	}
	if flags.verbose >= 2 {
		if s := result.DetailedStats(); s != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), s)
		}
	}
}

func resolveSeed() (s string, generated bool, err error) {
	if flags.seed != "" {
		return flags.seed, false, nil
	}
	s, err = seed.GenerateRandomSeed()
	if err != nil {
		return "", false, randerr.New(randerr.InvalidArgument, "generating random seed", err)
	}
	return s, true, nil
}

func parseSeeks(output string) (iseek, oseek int64, err error) {
	if flags.seek != "" {
		v, err := sizeparse.Parse(flags.seek, output)
		if err != nil {
			return 0, 0, err
		}
		return v, v, nil
	}
	if flags.iseek != "" {
		iseek, err = sizeparse.Parse(flags.iseek, output)
		if err != nil {
			return 0, 0, err
		}
	}
	if flags.oseek != "" {
		oseek, err = sizeparse.Parse(flags.oseek, output)
		if err != nil {
			return 0, 0, err
		}
	}
	return iseek, oseek, nil
}

func runBenchmarkMode(cmd *cobra.Command, c cipher.Cipher) error {
	length := flags.length
	if length == "" {
		length = "1G"
	}
	total, err := sizeparse.Parse(length, flags.output)
	if err != nil {
		return randerr.New(randerr.InvalidArgument, "parsing length", err)
	}

	maxThreads := flags.threads
	if !cmd.Flags().Changed("threads") {
		maxThreads = benchmark.DefaultMaxThreads()
	}

	benchFile := flags.output
	if benchFile == "" {
		benchFile = "test.dat"
		if _, statErr := os.Stat(benchFile); statErr == nil {
			return randerr.New(randerr.InvalidArgument, fmt.Sprintf("file %s already exists; use -o %s to benchmark over it or choose another name", benchFile, benchFile), nil)
		}
	}

	key, err := seed.DeriveKey("randquik-benchmark-seed", c.KeySize())
	if err != nil {
		return randerr.New(randerr.Internal, "deriving benchmark key", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	samples, err := benchmark.Sweep(ctx, benchmark.Config{
		Key:        key,
		Cipher:     c,
		Length:     total,
		MaxThreads: maxThreads,
		BenchFile:  benchFile,
	})
	if err != nil {
		return randerr.New(randerr.Internal, "running benchmark", err)
	}

	tcounts := sizeparse.SparseRange(maxThreads, 9)
	fmt.Fprint(cmd.OutOrStdout(), benchmark.FormatTable(samples, tcounts))

	genSpeed := benchmark.BestOverallSpeed(samples)
	if best, ok := benchmark.BestFileSample(samples); ok {
		threadsSuffix := ""
		if best.Workers != 1 {
			threadsSuffix = fmt.Sprintf(" -t%d", best.Workers)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\n>>> Fastest wrote %.2f GB/s, plain RNG %.0f GB/s\nrandquik -o %s%s\n",
			best.MedianGBs, genSpeed, benchFile, threadsSuffix)
	}

	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func isTerminalStderr() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Execute runs the root command and exits with status 1 on any error.
// Called once by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if err == errInterrupted {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
