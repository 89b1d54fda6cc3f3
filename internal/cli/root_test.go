package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"layout", "quality", "render", "fetch", "serve", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("root command missing subcommand %q (have %v)", want, names)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute(--help) error: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("layout")) {
		t.Errorf("help output missing layout command:\n%s", out.String())
	}
}

func TestVerboseFlagEnablesDebug(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"-v", "--config", filepath.Join(t.TempDir(), "none.toml"), "cache", "path"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("log level = %v, want debug after --verbose", c.Logger.GetLevel())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug logged at info level: %q", buf.String())
	}

	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug not logged at debug level")
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != "svg" {
		t.Errorf("parseFormats(\"\") = %v, want [svg]", got)
	}
	if got := parseFormats("dot,png"); len(got) != 2 || got[0] != "dot" || got[1] != "png" {
		t.Errorf("parseFormats(dot,png) = %v", got)
	}
}

func TestValidateFormats(t *testing.T) {
	if err := validateFormats([]string{"svg", "dot", "png"}); err != nil {
		t.Errorf("valid formats rejected: %v", err)
	}
	if err := validateFormats([]string{"pdf"}); err == nil {
		t.Error("pdf accepted, want error")
	}
}
