package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
)

type fragmentRow struct {
	Part  int    `json:"part" yaml:"part"`
	Bytes int    `json:"bytes" yaml:"bytes"`
	Hex   string `json:"hex" yaml:"hex"`
	Text  string `json:"text" yaml:"text"`
}

type messageResult struct {
	Sender   string `json:"sender" yaml:"sender"`
	DestPort uint16 `json:"dest_port" yaml:"dest_port"`
	SrcPort  uint16 `json:"src_port" yaml:"src_port"`
	Parts    int    `json:"parts" yaml:"parts"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
	Hex      string `json:"hex" yaml:"hex"`
}

func newFragmentCmd(a *app) *cobra.Command {
	var (
		asHex  bool
		dest   uint16
		src    uint16
		budget int
	)
	cmd := &cobra.Command{
		Use:   "fragment [data|-]",
		Short: "Split a payload into WDP datagrams and mesh text messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readBytes(cmd, args, asHex)
			if err != nil {
				return err
			}
			if budget == 0 {
				budget = a.cfg.WDP.Budget
			}
			if dest == 0 {
				dest = a.cfg.Session.GatewayPort
			}
			f := wdp.Fragmenter{Budget: budget}
			datagrams, err := f.Fragment(raw, dest, src)
			if err != nil {
				return fmt.Errorf("fragment: %w", err)
			}
			rows := make([]fragmentRow, 0, len(datagrams))
			for i, d := range datagrams {
				text, err := protocol.EncodeText(d, a.cfg.Mesh.MaxText)
				if err != nil {
					return fmt.Errorf("encode part %d: %w", i+1, err)
				}
				rows = append(rows, fragmentRow{Part: i + 1, Bytes: len(d), Hex: hex.EncodeToString(d), Text: text})
			}
			return a.print(cmd, rows)
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "treat input as hex")
	cmd.Flags().Uint16Var(&dest, "dest", 0, "destination port (default session.gateway_port)")
	cmd.Flags().Uint16Var(&src, "src", 49152, "source port")
	cmd.Flags().IntVar(&budget, "budget", 0, "datagram budget in bytes (default wdp.budget)")
	return cmd
}

func newReassembleCmd(a *app) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "reassemble [text...]",
		Short: "Reassemble mesh text messages into one WDP payload",
		Long:  "Reassemble takes one mesh text message per argument, or one per stdin line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						texts = append(texts, line)
					}
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}
			r := wdp.NewReassembler(a.cfg.Reassembly())
			now := time.Now()
			for i, text := range texts {
				datagram, _, err := protocol.DecodeText(text)
				if err != nil {
					return fmt.Errorf("message %d: %w", i+1, err)
				}
				msg, done, err := r.Accept(sender, datagram, now)
				if err != nil {
					return fmt.Errorf("message %d: %w", i+1, err)
				}
				if done {
					return a.print(cmd, messageResult{
						Sender:   msg.Sender,
						DestPort: msg.DestPort,
						SrcPort:  msg.SrcPort,
						Parts:    msg.Parts,
						Bytes:    len(msg.Payload),
						Hex:      hex.EncodeToString(msg.Payload),
					})
				}
			}
			return fmt.Errorf("incomplete: %d messages read, payload not complete", len(texts))
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "cli", "sender id used as the reassembly key")
	return cmd
}
