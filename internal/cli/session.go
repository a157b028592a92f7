// Package cli implements the interactive co2info console.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/milad/co2info/internal/repo/csvrepo"
	"github.com/milad/co2info/internal/service"
)

// Session carries everything the menu loop needs. It is built once at
// startup and owns the input reader for the rest of the run.
type Session struct {
	svc    service.Queries
	in     *bufio.Reader
	out    io.Writer
	styles styles
}

func NewSession(svc service.Queries, in *bufio.Reader, out io.Writer) *Session {
	return &Session{
		svc:    svc,
		in:     in,
		out:    out,
		styles: newStyles(out),
	}
}

// ResolvePath returns the input file from args, or asks for it on in. The
// path must exist; a missing file is reported as csvrepo.ErrSourceNotFound.
func ResolvePath(args []string, in *bufio.Reader, out io.Writer) (string, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		fmt.Fprint(out, "\nEnter input file name: ")
		line, err := readLine(in)
		if err != nil {
			return "", fmt.Errorf("read file name: %w", err)
		}
		path = line
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", csvrepo.ErrSourceNotFound, path)
	}
	return path, nil
}

// Run shows the menu until the user quits or input ends.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printMenu()

		choice, err := readLine(s.in)
		if err != nil {
			return ignoreEOF(err)
		}

		switch choice {
		case "1":
			err = s.showAverages(ctx)
		case "2":
			err = s.showReadings(ctx, "Unhealthy ppm readings:", s.svc.Unhealthy)
		case "3":
			err = s.showReadings(ctx, "Broken ppm readings:", s.svc.Broken)
		case "4":
			err = s.findMeter(ctx)
		case "5":
			return nil
		default:
			fmt.Fprintln(s.out, "Please enter 1, 2, 3, 4, or 5.")
		}
		if err != nil {
			return ignoreEOF(err)
		}
	}
}

func (s *Session) printMenu() {
	fmt.Fprintln(s.out, s.styles.title.Render("Search Database:"))
	fmt.Fprintln(s.out, "1. Find all average readings")
	fmt.Fprintln(s.out, "2. Find unhealthy readings")
	fmt.Fprintln(s.out, "3. Find broken readings")
	fmt.Fprintln(s.out, "4. Find individual meter's readings")
	fmt.Fprintln(s.out, "5. Quit")
}

func (s *Session) showAverages(ctx context.Context) error {
	res, err := s.svc.Averages(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, s.styles.renderAverages(res))
	return nil
}

func (s *Session) showReadings(ctx context.Context, title string, list func(context.Context, string) ([]service.MeterReading, error)) error {
	res, err := list(ctx, "")
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, s.styles.renderReadings(title, res))
	return nil
}

func (s *Session) findMeter(ctx context.Context) error {
	fmt.Fprintln(s.out, "Which meter?")
	query, err := readLine(s.in)
	if err != nil {
		return err
	}

	matches, err := s.svc.Find(ctx, query)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Found %d meters.\n", len(matches))
	if len(matches) == 0 {
		return nil
	}
	for i, m := range matches {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, m.Name)
	}

	var picked service.MeterSummary
	for {
		line, err := readLine(s.in)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(matches) {
			picked = matches[n-1]
			break
		}
		fmt.Fprintf(s.out, "Please enter a number between 1 and %d.\n", len(matches))
	}

	readings, err := s.svc.Readings(ctx, picked.Name)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, s.styles.renderMeter(picked, readings))
	return nil
}

// readLine returns the next line without its terminator and surrounding
// space. A final line without newline is returned before io.EOF.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
