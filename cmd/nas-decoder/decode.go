package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-yaml"
	"github.com/urfave/cli/v2"

	"github.com/ellanetworks/nas-decoder/internal/gsm"
	"github.com/ellanetworks/nas-decoder/internal/transport"
)

// report is what decode prints for each 5GSM message found in an SDU.
type report struct {
	Envelope     string       `json:"envelope" yaml:"envelope"`
	MessageName  string       `json:"messageName" yaml:"messageName"`
	PDUSessionID uint8        `json:"pduSessionId" yaml:"pduSessionId"`
	UEIP         string       `json:"ueIp,omitempty" yaml:"ueIp,omitempty"`
	DNN          string       `json:"dnn,omitempty" yaml:"dnn,omitempty"`
	DNSServers   []string     `json:"dnsServers,omitempty" yaml:"dnsServers,omitempty"`
	Presence     string       `json:"presence" yaml:"presence"`
	Warnings     []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Message      *gsm.Message `json:"message" yaml:"message"`
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode an SDU given as hex, or read from a file",
		ArgsUsage: "[HEX]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "yaml",
				Usage: "output format: yaml, json or dump",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail on any decode warning",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "read the raw SDU from `PATH` instead of the argument",
			},
		},
		Action: func(c *cli.Context) error {
			sdu, err := readSDU(c.String("file"), strings.Join(c.Args().Slice(), ""))
			if err != nil {
				return err
			}

			reports, err := decodeSDU(sdu, gsm.DecodeOptions{Strict: c.Bool("strict")})
			if err != nil {
				return err
			}

			return writeReports(c.App.Writer, c.String("format"), reports)
		},
	}
}

func readSDU(path string, hexArg string) ([]byte, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read SDU file: %v", err)
		}

		return b, nil
	}

	if hexArg == "" {
		return nil, fmt.Errorf("an SDU is required, as a hex argument or with --file")
	}

	return parseHex(hexArg)
}

// parseHex accepts hex with optional spaces, colons and a 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex SDU: %v", err)
	}

	return b, nil
}

func decodeSDU(sdu []byte, opts gsm.DecodeOptions) ([]report, error) {
	sms, err := transport.Unwrap(sdu)
	if err != nil {
		return nil, fmt.Errorf("could not unwrap SDU: %w", err)
	}

	reports := make([]report, 0, len(sms))

	for _, sm := range sms {
		msg, err := opts.Decode(sm.Payload)
		if err != nil {
			return nil, fmt.Errorf("could not decode %s payload: %w", sm.Envelope, err)
		}

		reports = append(reports, newReport(sm.Envelope, msg))
	}

	return reports, nil
}

func newReport(envelope transport.Envelope, msg *gsm.Message) report {
	r := report{
		Envelope:     envelope.String(),
		MessageName:  gsm.MessageName(msg.Header.RawMessageType),
		PDUSessionID: msg.Header.PDUSessionID,
		Presence:     msg.Presence.String(),
		Message:      msg,
	}

	if msg.PDUAddress != nil {
		if ip, ok := msg.PDUAddress.IPv4(); ok {
			r.UEIP = ip.String()
		}
	}

	if len(msg.DNN) > 0 {
		r.DNN = msg.DNN.String()
	}

	for _, dns := range msg.EPCO.DNSServers() {
		r.DNSServers = append(r.DNSServers, dns.String())
	}

	for _, w := range msg.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}

	return r
}

func writeReports(w io.Writer, format string, reports []report) error {
	switch format {
	case "yaml":
		b, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("could not marshal yaml: %v", err)
		}

		_, err = w.Write(b)

		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(reports)
	case "dump":
		spew.Fdump(w, reports)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
