package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/meshwap/internal/protocol/base91"
	"github.com/danmuck/meshwap/internal/protocol/wsp"
	"github.com/danmuck/meshwap/internal/testutil/testlog"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEncodeDecode(t *testing.T) {
	testlog.Start(t)
	out, err := run(t, "", "encode", "-o", "json", "Hello")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var enc encodeResult
	if err := json.Unmarshal([]byte(out), &enc); err != nil {
		t.Fatalf("decode json %q: %v", out, err)
	}
	if enc.Encoded != base91.EncodeToString([]byte("Hello")) || enc.Bytes != 5 {
		t.Fatalf("encode got=%+v", enc)
	}

	out, err = run(t, enc.Encoded+"\n", "decode", "-o", "yaml")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out, "text: Hello") || !strings.Contains(out, "hex: 48656c6c6f") {
		t.Fatalf("decode got=%q", out)
	}
}

func TestRequestAndReply(t *testing.T) {
	testlog.Start(t)
	out, err := run(t, "", "request", "-o", "json", "--tid", "9", "http://wap.example.com/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var req requestResult
	if err := json.Unmarshal([]byte(out), &req); err != nil {
		t.Fatalf("decode json %q: %v", out, err)
	}
	want, _ := wsp.BuildGet("http://wap.example.com/", 9, true)
	if req.Hex != hex.EncodeToString(want) {
		t.Fatalf("request hex got=%s want=%x", req.Hex, want)
	}
	if _, err := run(t, "", "request", "--method", "POST", "http://x/"); err == nil {
		t.Fatalf("expected POST to be rejected")
	}

	deck := []byte{0x01, 0x04, 0x6A, 0x00, 0x7F, 0x60, 0x03, 'h', 'i', 0x00, 0x01, 0x01}
	pdu, err := wsp.AppendReply(nil, wsp.Reply{TransactionID: 9, StatusCode: 200, ContentType: "application/vnd.wap.wmlc", Body: deck})
	if err != nil {
		t.Fatalf("reply pdu: %v", err)
	}
	out, err = run(t, "", "reply", "--http", hex.EncodeToString(pdu))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") || !strings.Contains(out, "text/vnd.wap.wml") || !strings.Contains(out, "<wml><p>hi</p></wml>") {
		t.Fatalf("reply got=%q", out)
	}
}

func TestDecompileFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "deck.wmlc")
	deck := []byte{0x01, 0x04, 0x6A, 0x00, 0x67, 0x60, 0x03, 'o', 'k', 0x00, 0x01, 0x01}
	if err := os.WriteFile(path, deck, 0o600); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	out, err := run(t, "", "decompile", path)
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	if !strings.Contains(out, "<card><p>ok</p></card>") {
		t.Fatalf("decompile got=%q", out)
	}
	out, err = run(t, hex.EncodeToString(deck), "decompile", "--hex", "-o", "json", "-")
	if err != nil || !strings.Contains(out, `"version": "1.1"`) {
		t.Fatalf("decompile json got=%q err=%v", out, err)
	}
}

func TestFragmentThenReassemble(t *testing.T) {
	testlog.Start(t)
	payload := strings.Repeat("w", 250)
	out, err := run(t, "", "fragment", "-o", "json", "--src", "4000", payload)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	var rows []fragmentRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode json %q: %v", out, err)
	}
	if len(rows) != 3 {
		t.Fatalf("parts got=%d", len(rows))
	}

	var lines []string
	for i := len(rows) - 1; i >= 0; i-- {
		lines = append(lines, rows[i].Text)
	}
	out, err = run(t, strings.Join(lines, "\n")+"\n", "reassemble", "-o", "json")
	if err != nil {
		t.Fatalf("reassemble: %v", err)
	}
	var msg messageResult
	if err := json.Unmarshal([]byte(out), &msg); err != nil {
		t.Fatalf("decode json %q: %v", out, err)
	}
	if msg.Parts != 3 || msg.DestPort != 9200 || msg.SrcPort != 4000 || msg.Hex != hex.EncodeToString([]byte(payload)) {
		t.Fatalf("message got=%+v", msg)
	}

	if _, err := run(t, "", "reassemble", rows[0].Text); err == nil {
		t.Fatalf("expected incomplete error")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "proxy.toml")
	out, err := run(t, "", "config", "init", "--kind", "proxy", path)
	if err != nil || !strings.Contains(out, "wrote proxy config") {
		t.Fatalf("init got=%q err=%v", out, err)
	}
	out, err = run(t, "", "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "role = 'proxy'") && !strings.Contains(out, `role = "proxy"`) {
		t.Fatalf("show got=%q", out)
	}
	if _, err := run(t, "", "-o", "xml", "version"); err == nil {
		t.Fatalf("expected unknown output format error")
	}
}
