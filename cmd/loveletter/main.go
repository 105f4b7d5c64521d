package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the game server"`
	Bot      BotCmd           `cmd:"" help:"Connect a built-in bot to a server"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot-only games and report statistics"`
	Play     PlayCmd          `cmd:"" help:"Play against bots in the terminal"`
	Catalogs CatalogsCmd      `cmd:"" help:"List the built-in card catalogs"`
	History  HistoryCmd       `cmd:"" help:"Inspect recorded game histories"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("loveletter"),
		kong.Description("Rules engine, server and bots for a Love Letter style card game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
