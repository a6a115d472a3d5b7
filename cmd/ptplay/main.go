// ptplay plays, inspects and renders ProTracker modules.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/quasilyte/ptplay/internal/log"
)

func main() {
	log.Setup(os.Stderr)

	ctx, cli, err := parseArgs(os.Args[1:])
	checkf(err, "failed to parse command line")

	switch cmd, _, _ := strings.Cut(ctx.Command(), " "); cmd {
	case "info":
		err = runInfo(os.Stdout, &cli.Info)
	case "render":
		err = runRender(cli, &cli.Render)
	case "version":
		fmt.Println("ptplay", version)
	default:
		err = runPlay(cli, &cli.Play)
	}
	checkf(err, "%s failed", ctx.Command())
}
