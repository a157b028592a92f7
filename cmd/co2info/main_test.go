package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run reads configuration from the working directory, so these tests chdir
// into a temp dir and cannot run in parallel.

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun_LoadsAndQuits(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "co2.csv", "Time,Temp,Room A,Room B\n2024-01-01 08:00:00,20.5,450,1500\n")

	var out bytes.Buffer
	code := run([]string{path}, strings.NewReader("1\n5\n"), &out)
	if code != exitOK {
		t.Fatalf("code=%d want %d, output:\n%s", code, exitOK, out.String())
	}
	if !strings.Contains(out.String(), "Successfully loaded 2 meters.") {
		t.Fatalf("missing success line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Room B: 1500.0 ppm") {
		t.Fatalf("missing averages:\n%s", out.String())
	}
}

func TestRun_PromptsForPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "co2.csv", "Time,Temp,Room A\n2024-01-01 08:00:00,20.5,450\n")

	var out bytes.Buffer
	if code := run(nil, strings.NewReader("co2.csv\n5\n"), &out); code != exitOK {
		t.Fatalf("code=%d want %d, output:\n%s", code, exitOK, out.String())
	}
	if !strings.Contains(out.String(), "Successfully loaded 1 meters.") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRun_DistinctExitCodes(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cases := []struct {
		name string
		path string
		code int
		msg  string
	}{
		{"missing", filepath.Join(dir, "missing.csv"), exitNotFound, "File not found."},
		{"unreadable", t.TempDir(), exitReadError, "An I/O error occurred."},
		{"bad row", writeFile(t, dir, "row.csv", "Time,Temp,A,B\n2024-01-01 08:00:00,20,1\n"), exitMalformedRecord, "Malformed CSV record."},
		{"bad header", writeFile(t, dir, "header.csv", "Time,Temp\n"), exitMalformedHeader, "Malformed CSV header."},
	}
	seen := map[int]bool{}
	for _, tc := range cases {
		var out bytes.Buffer
		code := run([]string{tc.path}, strings.NewReader(""), &out)
		if code != tc.code {
			t.Fatalf("%s: code=%d want %d", tc.name, code, tc.code)
		}
		if !strings.Contains(out.String(), "Failed to load meters: "+tc.msg) {
			t.Fatalf("%s: unexpected output %q", tc.name, out.String())
		}
		seen[code] = true
	}
	if len(seen) != len(cases) {
		t.Fatalf("exit codes are not distinct: %v", seen)
	}
}

func TestRun_InvalidLimitsFlag(t *testing.T) {
	t.Chdir(t.TempDir())

	if code := run([]string{"-min", "2000", "-max", "1000", "x.csv"}, strings.NewReader(""), &bytes.Buffer{}); code != exitConfig {
		t.Fatalf("code=%d want %d", code, exitConfig)
	}
}

func TestRun_ThresholdFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "co2.csv", "Time,Temp,Room A\n2024-01-01 08:00:00,20.5,700\n")

	var out bytes.Buffer
	if code := run([]string{"-unhealthy", "600", path}, strings.NewReader("2\n5\n"), &out); code != exitOK {
		t.Fatalf("code=%d want %d", code, exitOK)
	}
	if !strings.Contains(out.String(), "2024-01-01 08:00:00  700 ppm") {
		t.Fatalf("expected 700 ppm to be unhealthy at threshold 600:\n%s", out.String())
	}
}

func TestRun_FlagOverridesEnvBeforeValidation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CO2INFO_MAX_PPM", "800")
	path := writeFile(t, dir, "co2.csv", "Time,Temp,Room A\n2024-01-01 08:00:00,20.5,600\n")

	// The default unhealthy limit of 1000 is above the env max; the flag
	// replaces it before the config is checked.
	var out bytes.Buffer
	if code := run([]string{"-unhealthy", "500", path}, strings.NewReader("2\n5\n"), &out); code != exitOK {
		t.Fatalf("code=%d want %d, output:\n%s", code, exitOK, out.String())
	}
	if !strings.Contains(out.String(), "2024-01-01 08:00:00  600 ppm") {
		t.Fatalf("expected 600 ppm to be unhealthy at threshold 500:\n%s", out.String())
	}

	if code := run([]string{path}, strings.NewReader(""), &bytes.Buffer{}); code != exitConfig {
		t.Fatalf("without the flag: code=%d want %d", code, exitConfig)
	}
}

func TestRun_Dump(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "co2.csv", "Time,Temp,Room A,Room B\n2024-01-01 08:00:00,20.5,450,-5\n")

	var out bytes.Buffer
	if code := run([]string{"-dump", path}, strings.NewReader(""), &out); code != exitOK {
		t.Fatalf("code=%d want %d", code, exitOK)
	}
	for _, want := range []string{"Room A\n  2024-01-01 08:00:00  450 ppm\n", "Room B\n  2024-01-01 08:00:00  -5 ppm (broken)\n"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "Search Database:") {
		t.Fatalf("dump should not start the menu:\n%s", out.String())
	}
}
