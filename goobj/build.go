package goobj

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ZenLiuCN/fn"
	"github.com/ZenLiuCN/hotreload"
	"go.uber.org/zap"
)

// Build compiles the Go sources of package pkg into the object file out.
func Build(pkg, out string, sources []string) (err error) {
	if len(sources) == 0 {
		return fmt.Errorf("missing sources for %s", out)
	}
	if _, err = exec.LookPath("go"); err != nil {
		return fmt.Errorf("missing go sdk: %w", err)
	}
	var cfg *os.File
	if cfg, err = os.CreateTemp("", "importcfg"); err != nil {
		return
	}
	defer func() { _ = os.Remove(cfg.Name()) }()
	err = Imports(cfg, sources)
	fn.IgnoreClose(cfg)
	if err != nil {
		return
	}
	cmd := exec.Command("go", append([]string{"tool", "compile", "-p", pkg, "-importcfg", cfg.Name(), "-o", out}, sources...)...)
	hotreload.Logger().Debug("compile object", zap.Strings("args", cmd.Args))
	var bout []byte
	if bout, err = cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("compile %s: %w\n%s", out, err, bout)
	}
	return
}

// Imports writes the importcfg the go compiler needs for sources.
func Imports(w io.Writer, sources []string) (err error) {
	cmd := exec.Command("go", append([]string{"list", "-export", "-f", "{{.Imports}}"}, sources...)...)
	var bout []byte
	if bout, err = output(cmd); err != nil {
		return fmt.Errorf("inspect imports: %w", err)
	}
	out := strings.TrimSpace(string(bout))
	out = strings.TrimSuffix(strings.TrimPrefix(out, "["), "]")
	deps := strings.Fields(out)
	hotreload.Logger().Debug("imports", zap.Strings("deps", deps))
	cmd = exec.Command("go", append([]string{"list", "-export", "-f", "{{if .Export}}packagefile {{.ImportPath}}={{.Export}}{{end}}", "std"}, deps...)...)
	if bout, err = output(cmd); err != nil {
		return fmt.Errorf("inspect dependencies: %w", err)
	}
	_, err = w.Write(bout)
	return
}

func output(cmd *exec.Cmd) ([]byte, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	bout, err := cmd.Output()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return bout, fmt.Errorf("%w\n%s", err, stderr.String())
	}
	return bout, err
}
