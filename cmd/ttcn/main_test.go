package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const okSrc = `module M {
function f() return integer {
  var integer x := 1;
  return x
}
}
`

const badSrc = `module M {
function f() {
  log(zz)
}
}
`

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("3:7")
	if err != nil {
		t.Fatal(err)
	}
	if start != 3 || end != 7 {
		t.Fatalf("range = %d:%d, want 3:7", start, end)
	}
	for _, bad := range []string{"", "3", "a:1", "1:b", "5:2", "-1:2"} {
		if _, _, err := parseRange(bad); err == nil {
			t.Fatalf("parseRange(%q) succeeded, want error", bad)
		}
	}
}

func TestCheckCleanFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "ok.ttcn", okSrc)
	out, err := runCmd(t, "check", "--config", writeFile(t, dir, "ttcn.yaml", ""), p)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if out != "" {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCheckReportsErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ttcn.yaml", "")
	writeFile(t, dir, "bad.ttcn", badSrc)
	writeFile(t, dir, "notes.txt", "ignored")
	out, err := runCmd(t, "check", "--config", cfg, dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v, want errDiagnostics", err)
	}
	if !strings.Contains(out, "bad.ttcn:3:7: error: There is no local or imported definition with name `zz'") {
		t.Fatalf("missing diagnostic:\n%s", out)
	}
}

func TestEditReportsIncremental(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ttcn.yaml", "")
	p := writeFile(t, dir, "ok.ttcn", okSrc)
	at := strings.Index(okSrc, "1;")
	out, err := runCmd(t, "edit", "--config", cfg, p, "--range", rangeArg(at, at+1), "--text", "2")
	if err != nil {
		t.Fatalf("edit failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "incremental: true, reparsed blocks: 1") {
		t.Fatalf("output = %q", out)
	}
	if b, _ := os.ReadFile(p); string(b) != okSrc {
		t.Fatalf("edit must not write the file")
	}
}

func TestEditRequiresRange(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "ok.ttcn", okSrc)
	if _, err := runCmd(t, "edit", "--config", writeFile(t, dir, "ttcn.yaml", ""), p); err == nil {
		t.Fatal("edit without --range succeeded")
	}
}

func TestConfigMergesFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ttcn.yaml", "report_goto: error\nopen_units: 8\n")
	out, err := runCmd(t, "config", "--config", cfg, "--report-unused-label", "ignore")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"report_goto: error\n", "open_units: 8\n", "report_unused_label: ignore\n", "report_unreachable_code: warning\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "ttcn.yaml", "report_goto: loud\nopen_units: 0\n")
	_, err := runCmd(t, "config", "--config", cfg)
	if err == nil {
		t.Fatal("invalid configuration accepted")
	}
	if !strings.Contains(err.Error(), "report_goto") || !strings.Contains(err.Error(), "open_units") {
		t.Fatalf("error does not name every invalid key: %v", err)
	}
}

func rangeArg(start, end int) string {
	return fmt.Sprintf("%d:%d", start, end)
}
