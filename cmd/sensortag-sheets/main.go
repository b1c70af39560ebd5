package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/sensortag-sheets/sensortag-sheets/commands"
	"github.com/sensortag-sheets/sensortag-sheets/config"
)

var cli = []uhppoted.Command{
	&commands.VersionCmd,
	&commands.ScanCmd,
	&commands.ReadCmd,
	&commands.AuthoriseCmd,
	&commands.RunCmd,
	&commands.GetCmd,
	&commands.PutCmd,
}

var options = commands.Options{
	Debug: false,
	Env:   config.DefaultEnv,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.StringVar(&options.Env, "env", options.Env, "File with environment variable defaults for the command options")
	flag.Parse()

	c, err := config.Load(options.Env)
	if err != nil {
		fmt.Printf("\nError loading %v: %v\n\n", options.Env, err)
		os.Exit(1)
	}

	commands.Configure(c)

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer cancel()

	if cmd == nil {
		help.Execute(ctx)
		os.Exit(1)
	}

	if err = cmd.Execute(ctx, &options); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %v\n\n", err)
		cancel()
		os.Exit(1)
	}
}
