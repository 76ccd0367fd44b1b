package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/meshwap/internal/gateway"
	"github.com/danmuck/meshwap/internal/output"
	"github.com/danmuck/meshwap/internal/protocol/base91"
	"github.com/danmuck/meshwap/internal/protocol/wbxml"
	"github.com/danmuck/meshwap/internal/protocol/wsp"
)

type encodeResult struct {
	Encoded string `json:"encoded" yaml:"encoded"`
	Bytes   int    `json:"bytes" yaml:"bytes"`
	Length  int    `json:"length" yaml:"length"`
}

type decodeResult struct {
	Hex   string `json:"hex" yaml:"hex"`
	Bytes int    `json:"bytes" yaml:"bytes"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
}

type requestResult struct {
	Method string `json:"method" yaml:"method"`
	URL    string `json:"url" yaml:"url"`
	TID    byte   `json:"tid" yaml:"tid"`
	Bytes  int    `json:"bytes" yaml:"bytes"`
	Hex    string `json:"hex" yaml:"hex"`
}

type replyResult struct {
	Status        int    `json:"status" yaml:"status"`
	StatusText    string `json:"status_text" yaml:"status_text"`
	WSPStatus     string `json:"wsp_status" yaml:"wsp_status"`
	ContentType   string `json:"content_type" yaml:"content_type"`
	ContentLength int    `json:"content_length" yaml:"content_length"`
	Server        string `json:"server,omitempty" yaml:"server,omitempty"`
	Location      string `json:"location,omitempty" yaml:"location,omitempty"`
	Date          string `json:"date,omitempty" yaml:"date,omitempty"`
	BodyBytes     int    `json:"body_bytes" yaml:"body_bytes"`
	Body          string `json:"body,omitempty" yaml:"body,omitempty"`
	Truncated     bool   `json:"truncated" yaml:"truncated"`
}

func newEncodeCmd(a *app) *cobra.Command {
	var asHex bool
	cmd := &cobra.Command{
		Use:   "encode [data|-]",
		Short: "Base91-encode bytes for a mesh text message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readBytes(cmd, args, asHex)
			if err != nil {
				return err
			}
			encoded := base91.EncodeToString(raw)
			return a.print(cmd, encodeResult{Encoded: encoded, Bytes: len(raw), Length: len(encoded)})
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "treat input as hex")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [base91|-]",
		Short: "Decode Base91 text back to bytes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readArg(cmd, args)
			if err != nil {
				return err
			}
			raw, err := base91.DecodeString(s)
			if err != nil {
				return fmt.Errorf("decode base91: %w", err)
			}
			res := decodeResult{Hex: hex.EncodeToString(raw), Bytes: len(raw)}
			if printable(raw) {
				res.Text = string(raw)
			}
			return a.print(cmd, res)
		},
	}
}

func newRequestCmd(a *app) *cobra.Command {
	var (
		method string
		tid    uint8
		noHost bool
	)
	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Build a connectionless WSP request PDU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := wsp.ParseMethod(method)
			if err != nil {
				return err
			}
			b := wsp.DefaultRequestBuilder(tid)
			b.Method = m
			b.HostHeader = a.cfg.WSP.HostHeader && !noHost
			if a.cfg.WSP.UserAgent != "" {
				b.UserAgent = a.cfg.WSP.UserAgent
			}
			if a.cfg.WSP.MaxPDU > 0 {
				b.MaxPDU = a.cfg.WSP.MaxPDU
			}
			pdu, err := b.Build(args[0])
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			return a.print(cmd, requestResult{
				Method: m.String(),
				URL:    args[0],
				TID:    tid,
				Bytes:  len(pdu),
				Hex:    hex.EncodeToString(pdu),
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "GET", "WSP method")
	cmd.Flags().Uint8Var(&tid, "tid", 1, "transaction id")
	cmd.Flags().BoolVar(&noHost, "no-host", false, "omit the Host header")
	return cmd
}

func newReplyCmd(a *app) *cobra.Command {
	var (
		withoutTID bool
		decompile  bool
		asHTTP     bool
	)
	cmd := &cobra.Command{
		Use:   "reply [hex|-]",
		Short: "Decode a WSP reply PDU",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readBytes(cmd, args, true)
			if err != nil {
				return err
			}
			var resp wsp.Response
			if withoutTID {
				resp, err = wsp.DecodeWithoutTID(raw)
			} else {
				resp, err = wsp.Decode(raw)
			}
			if err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}

			res := replyResult{
				Status:        resp.StatusCode,
				StatusText:    resp.StatusText,
				WSPStatus:     fmt.Sprintf("0x%02X", resp.WSPStatus),
				ContentType:   resp.ContentType,
				ContentLength: resp.ContentLength,
				Server:        resp.Server,
				Location:      resp.Location,
				BodyBytes:     len(resp.Body),
			}
			if !resp.Date.IsZero() {
				res.Date = resp.Date.UTC().Format(time.RFC1123)
			}
			if decompile && resp.IsCompiledMarkup() {
				doc, err := wbxml.DecompileDocument(resp.Body, a.cfg.WSP.DecompileCapacity)
				if err != nil {
					return fmt.Errorf("decompile body: %w", err)
				}
				resp.Body = []byte(doc.Text)
				resp.ContentType = gateway.WMLContentType
				res.ContentType = resp.ContentType
				res.Truncated = doc.Truncated
			}
			if asHTTP {
				return resp.WriteHTTP(cmd.OutOrStdout())
			}
			if printable(resp.Body) {
				res.Body = string(resp.Body)
			}
			return a.print(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&withoutTID, "without-tid", false, "input starts at the PDU type byte")
	cmd.Flags().BoolVar(&decompile, "decompile", true, "decompile WMLC bodies to WML")
	cmd.Flags().BoolVar(&asHTTP, "http", false, "print the reply as an HTTP/1.1 message")
	return cmd
}

func newDecompileCmd(a *app) *cobra.Command {
	var (
		asHex    bool
		capacity int
	)
	cmd := &cobra.Command{
		Use:   "decompile <file|->",
		Short: "Decompile a WMLC deck to WML text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readFile(cmd, args[0], asHex)
			if err != nil {
				return err
			}
			if capacity == 0 {
				capacity = a.cfg.WSP.DecompileCapacity
			}
			doc, err := wbxml.DecompileDocument(raw, capacity)
			if err != nil {
				return fmt.Errorf("decompile: %w", err)
			}
			if _, table := a.formatter.(output.TableFormatter); table {
				fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
				if doc.Truncated {
					fmt.Fprintf(cmd.ErrOrStderr(), "output truncated at %d bytes\n", capacity)
				}
				return nil
			}
			return a.print(cmd, map[string]any{
				"version":   doc.Header.VersionString(),
				"public_id": doc.Header.PublicID,
				"truncated": doc.Truncated,
				"wml":       doc.Text,
			})
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "input file holds hex text")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "output capacity in bytes (default from config)")
	return cmd
}

func printable(b []byte) bool {
	for _, c := range b {
		if c != '\n' && c != '\r' && c != '\t' && (c < 0x20 || c > 0x7E) {
			return false
		}
	}
	return true
}
