package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("nas-decoder: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "nas-decoder",
		Usage: "decode 5GS PDU Session Establishment Accept messages",
		Commands: []*cli.Command{
			decodeCommand(),
			captureCommand(),
			replayCommand(),
		},
	}
}
