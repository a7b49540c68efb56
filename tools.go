package hotreload

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ZenLiuCN/fn"
	"go.uber.org/zap"
)

// CopyFile from src to dest with optional src file info
func CopyFile(src string, dest string, si fs.FileInfo) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer fn.IgnoreClose(sf)
	df, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer fn.IgnoreClose(df)
	if _, err = io.Copy(df, sf); err != nil {
		return
	}
	if si == nil {
		if si, err = os.Stat(src); err != nil {
			return
		}
	}
	return os.Chmod(dest, si.Mode())
}

// CopyDir from src to dest with optional src file info
func CopyDir(src string, dest string, si fs.FileInfo) (err error) {
	if si == nil {
		if si, err = os.Stat(src); err != nil {
			return err
		}
	}
	if err = os.MkdirAll(dest, si.Mode()); err != nil {
		return err
	}
	return filepath.Walk(src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dp := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(dp, info.Mode())
		}
		return CopyFile(path, dp, info)
	})
}

// Compile C sources into the shared library out with the compiler cc ("cc" when empty).
//
// The library is linked to a temporary file next to out and renamed over it, so a library
// still mapped by the process is replaced rather than truncated.
func Compile(cc, out string, sources []string, flags ...string) (err error) {
	if len(sources) == 0 {
		return fmt.Errorf("missing sources for %s", out)
	}
	if cc == "" {
		cc = "cc"
	}
	if _, err = exec.LookPath(cc); err != nil {
		return fmt.Errorf("missing c compiler: %w", err)
	}
	tmp := out + ".tmp"
	args := []string{"-shared"}
	if runtime.GOOS != "windows" {
		args = append(args, "-fPIC")
	}
	args = append(args, flags...)
	args = append(args, "-o", tmp)
	args = append(args, sources...)
	cmd := exec.Command(cc, args...)
	Logger().Debug("compile", zap.Strings("args", cmd.Args))
	var bout []byte
	if bout, err = cmd.CombinedOutput(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("compile %s: %w\n%s", out, err, bout)
	}
	if err = os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", out, err)
	}
	return
}
