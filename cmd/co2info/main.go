package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/milad/co2info/internal/cli"
	"github.com/milad/co2info/internal/config"
	"github.com/milad/co2info/internal/repo/csvrepo"
	"github.com/milad/co2info/internal/service"
)

// Exit codes; each load failure kind gets its own.
const (
	exitOK = iota
	exitConfig
	exitNotFound
	exitReadError
	exitMalformedRecord
	exitMalformedHeader
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("co2info", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to a YAML config file")
		unhealthy  = fs.Float64("unhealthy", 0, "ppm above which a reading is unhealthy")
		minPPM     = fs.Float64("min", 0, "lowest plausible ppm value")
		maxPPM     = fs.Float64("max", 0, "highest plausible ppm value")
		verbose    = fs.Bool("v", false, "log an ingestion summary")
		dump       = fs.Bool("dump", false, "print every meter's readings and exit")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: co2info [flags] [file.csv]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config: %v", err)
		return exitConfig
	}
	// Flags override the config only when given explicitly.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["unhealthy"] {
		cfg.UnhealthyPPM = *unhealthy
	}
	if set["min"] {
		cfg.MinPPM = *minPPM
	}
	if set["max"] {
		cfg.MaxPPM = *maxPPM
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return exitConfig
	}

	pathArgs := fs.Args()
	if len(pathArgs) == 0 && cfg.CSVPath != "" {
		pathArgs = []string{cfg.CSVPath}
	}

	in := bufio.NewReader(stdin)
	path, err := cli.ResolvePath(pathArgs, in, stdout)
	if err != nil {
		return reportLoadError(stdout, err)
	}

	repo, err := csvrepo.NewFromFile(path, cfg.Limits())
	if err != nil {
		if *verbose {
			log.Printf("load %s: %v", path, err)
		}
		return reportLoadError(stdout, err)
	}
	if *verbose {
		st := repo.Stats()
		log.Printf("loaded %d rows, %d readings (%d unhealthy, %d broken) from %s",
			st.Rows, st.Readings, st.Unhealthy, st.Broken, path)
	}
	fmt.Fprintf(stdout, "Successfully loaded %d meters.\n", repo.Database().Size())

	if *dump {
		for m := range repo.Database().Meters() {
			fmt.Fprint(stdout, m)
		}
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := cli.NewSession(service.NewMeterService(repo), in, stdout)
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("session: %v", err)
		return exitReadError
	}
	return exitOK
}

// reportLoadError prints the user-facing message for a failed load and
// returns its exit code.
func reportLoadError(w io.Writer, err error) int {
	msg, code := describeLoadError(err)
	fmt.Fprintln(w, "Failed to load meters: "+msg)
	return code
}

func describeLoadError(err error) (string, int) {
	switch {
	case errors.Is(err, csvrepo.ErrSourceNotFound):
		return "File not found.", exitNotFound
	case errors.Is(err, csvrepo.ErrMalformedHeader):
		return "Malformed CSV header.", exitMalformedHeader
	case errors.Is(err, csvrepo.ErrMalformedRecord):
		return "Malformed CSV record.", exitMalformedRecord
	default:
		return "An I/O error occurred.", exitReadError
	}
}
