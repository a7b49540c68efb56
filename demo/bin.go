package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ZenLiuCN/fn"
	"github.com/ZenLiuCN/hotreload"
	"github.com/ZenLiuCN/hotreload/foo"
	"github.com/ZenLiuCN/hotreload/pool"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := cli.NewApp()
	app.Name = "demo"
	app.Usage = "hot reload the foo library"
	app.Description = "load libfoo, print foo(1) and bar, then reload it after a rebuild"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, EnvVars: []string{"HOTRELOAD_DEBUG"}},
		&cli.StringFlag{Name: "dir", Value: ".", Usage: "directory of the foo library", EnvVars: []string{"HOTRELOAD_DIR"}},
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "reload on every rebuild until interrupted"},
	}
	app.Action = action
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("failure %s", err)
	}
}

func action(ctx *cli.Context) (err error) {
	if ctx.Bool("debug") {
		hotreload.SetLogger(fn.Panic1(zap.NewDevelopment()))
	}
	foo.Dir = ctx.String("dir")
	defer func() { _ = hotreload.CloseAll() }()
	if err = foo.Load(); err != nil {
		return
	}
	if err = show(); err != nil {
		return
	}
	if ctx.Bool("watch") {
		return watch(ctx.Context)
	}
	fmt.Print("Make some changes, recompile, and press enter.")
	if _, err = bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return
	}
	if err = foo.Reload(); err != nil {
		return
	}
	return show()
}

func show() error {
	r, err := foo.Foo(1)
	if err != nil {
		return err
	}
	fmt.Printf("foo(1) == %d\n", r)
	v, err := foo.Bar()
	if err != nil {
		return err
	}
	fmt.Printf("bar == %d\n", v)
	return nil
}

func watch(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	p := pool.NewPool()
	if err := p.Add(foo.Module()); err != nil {
		return err
	}
	fmt.Printf("watching %s, interrupt to stop\n", foo.Path())
	return p.Watch(ctx, pool.WatchConfig{
		OnReload: func(name string, err error) {
			if err != nil {
				fmt.Printf("reload %s: %v\n", name, err)
				return
			}
			// runs on the watcher goroutine, which is the only one touching the module
			if err = show(); err != nil {
				fmt.Printf("%s: %v\n", name, err)
			}
		},
	})
}
