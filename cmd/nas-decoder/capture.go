package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ellanetworks/nas-decoder/internal/trace"
	"github.com/ellanetworks/nas-decoder/internal/transport"
)

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "write hex SDUs to a pcap trace Wireshark dissects as 5GS NAS",
		ArgsUsage: "HEX...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Usage:    "trace file `PATH`",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "envelope",
				Value: "gsm",
				Usage: "wrap each SDU first: gsm (none), nas (DL NAS Transport) or ngap",
			},
			&cli.UintFlag{
				Name:  "pdu-session-id",
				Value: 1,
				Usage: "PDU session ID carried by the envelope",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one hex SDU is required")
			}

			envelope, err := transport.ParseEnvelope(c.String("envelope"))
			if err != nil {
				return err
			}

			id := c.Uint("pdu-session-id")
			if id > 0xff {
				return fmt.Errorf("pdu-session-id must fit in one octet, got %d", id)
			}

			f, err := os.Create(c.String("out"))
			if err != nil {
				return fmt.Errorf("could not create trace file: %v", err)
			}
			defer f.Close()

			n, err := capture(f, envelope, uint8(id), c.Args().Slice())
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "wrote %d SDUs to %s\n", n, c.String("out"))

			return nil
		},
	}
}

func capture(f *os.File, envelope transport.Envelope, pduSessionID uint8, hexSDUs []string) (int, error) {
	w, err := trace.NewWriter(f)
	if err != nil {
		return 0, err
	}

	for i, h := range hexSDUs {
		sm, err := parseHex(h)
		if err != nil {
			return i, fmt.Errorf("SDU %d: %w", i, err)
		}

		sdu, err := transport.Wrap(envelope, pduSessionID, sm)
		if err != nil {
			return i, fmt.Errorf("SDU %d: %w", i, err)
		}

		if err := w.WriteSDU(sdu); err != nil {
			return i, err
		}
	}

	return len(hexSDUs), nil
}
