package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	. "github.com/ZenLiuCN/hotreload"
	"github.com/ZenLiuCN/hotreload/goobj"
	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := cli.NewApp()
	app.Usage = "hot reloadable library compiler"
	app.Action = action
	app.Name = "compile"
	app.Description = "compile C sources into a shared library which can be hot reloaded, or inspect one"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, EnvVars: []string{"HOTRELOAD_DEBUG"}},
		&cli.StringFlag{Name: "cc", Value: "cc", Usage: "c compiler", EnvVars: []string{"HOTRELOAD_CC", "CC"}},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output library path"},
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "library base name, output is the platform file name in --dir"},
		&cli.StringFlag{Name: "dir", Value: ".", Usage: "output directory used with --name", EnvVars: []string{"HOTRELOAD_DIR"}},
	}
	app.Before = setup
	app.Args = true
	app.Commands = []*cli.Command{
		{Name: "prepare", Action: prepare, Usage: "copy internals of go sdk for Go object loading"},
		{Name: "clean", Action: clean, Usage: "remove copied internals of go sdk"},
		{Name: "object",
			Action: object,
			Usage:  "compile go sources of one package into an object file",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "pkg", Aliases: []string{"p"}, Value: "main", Usage: "package path"},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output object file"},
			},
			Args: true,
		},
		{Name: "symbols",
			Action: symbols,
			Usage:  "report which of the named symbols resolve in a library",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "lib", Aliases: []string{"l"}, Required: true, Usage: "library or object file"},
				&cli.BoolFlag{Name: "object", Usage: "list the symbols of a Go object file instead"},
				&cli.StringFlag{Name: "pkg", Aliases: []string{"p"}, Value: "main", Usage: "package path of the object file"},
				&cli.BoolFlag{Name: "dump", Usage: "dump the resolved table"},
			},
			Args: true,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("failure %s", err)
	}
}

func setup(ctx *cli.Context) (err error) {
	var l *zap.Logger
	if ctx.Bool("debug") {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return
	}
	SetLogger(l)
	return
}

func action(ctx *cli.Context) error {
	o := ctx.Args().Slice()
	if len(o) == 0 {
		return fmt.Errorf("missing target sources list")
	}
	out := ctx.String("out")
	if out == "" {
		n := ctx.String("name")
		if n == "" {
			return fmt.Errorf("one of --out or --name is required")
		}
		out = filepath.Join(ctx.String("dir"), LocalLibraryName(n))
	}
	if err := Compile(ctx.String("cc"), out, o); err != nil {
		return err
	}
	Logger().Info("compiled", zap.String("library", out))
	return nil
}

func object(ctx *cli.Context) error {
	o := ctx.Args().Slice()
	if len(o) == 0 {
		return fmt.Errorf("missing target sources list")
	}
	return goobj.Build(ctx.String("pkg"), ctx.String("out"), o)
}

func symbols(ctx *cli.Context) (err error) {
	lib := ctx.String("lib")
	if ctx.Bool("object") {
		var v []string
		if v, err = goobj.Inspect(lib, ctx.String("pkg")); err != nil {
			return
		}
		for _, s := range v {
			fmt.Println(s)
		}
		return
	}
	names := ctx.Args().Slice()
	table := make(Table, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		table = append(table, Symbol{Name: n})
	}
	if len(table) == 0 {
		return fmt.Errorf("missing symbol names")
	}
	m := New(filepath.Base(lib), table, func() string { return lib })
	if err = m.Load(); err != nil {
		return
	}
	defer m.Unload()
	for i := range table {
		fmt.Printf("%-24s %t\n", table[i].Name, table[i].Resolved())
	}
	if ctx.Bool("dump") {
		spew.Dump(table)
	}
	if missing := m.Missing(); len(missing) > 0 {
		return fmt.Errorf("%d unresolved: %v", len(missing), missing)
	}
	return
}

func clean(ctx *cli.Context) (err error) {
	dir := os.ExpandEnv("$GOROOT/src/cmd/objfile")
	if _, err = os.Stat(dir); err == nil {
		err = os.RemoveAll(dir)
		Logger().Debug("removed", zap.String("dir", dir))
	} else {
		err = nil
		Logger().Debug("did nothing", zap.String("dir", dir))
	}
	return
}

func prepare(ctx *cli.Context) (err error) {
	src := os.ExpandEnv("$GOROOT/src/cmd/internal")
	dir := os.ExpandEnv("$GOROOT/src/cmd/objfile")
	Logger().Debug("prepare go sdk", zap.String("from", src), zap.String("to", dir))
	if _, err = os.Stat(dir); err != nil && os.IsNotExist(err) {
		err = CopyDir(src, dir, nil)
		Logger().Debug("copied", zap.String("dir", dir))
	} else {
		Logger().Debug("did nothing", zap.String("dir", dir))
	}
	return
}
