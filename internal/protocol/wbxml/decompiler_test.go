package wbxml

import (
	"errors"
	"strings"
	"testing"
)

const wml11Prolog = `<?xml version="1.0"?>` + "\n" +
	`<!DOCTYPE wml PUBLIC "-//WAPFORUM//DTD WML 1.1//EN" "http://www.wapforum.org/DTD/wml_1.1.xml">` + "\n"

func doc11(body ...byte) []byte {
	return append([]byte{0x01, 0x04, 0x6A, 0x00}, body...)
}

func docWithTable(table string, body ...byte) []byte {
	out := []byte{0x01, 0x04, 0x6A, byte(len(table))}
	out = append(out, table...)
	return append(out, body...)
}

func mustDecompile(t *testing.T, wmlc []byte) string {
	t.Helper()
	out, err := Decompile(wmlc, 4096)
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	return out
}

func TestDecompileWMLDeck(t *testing.T) {
	got := mustDecompile(t, doc11(0x7F, 0x60, 0x03, 'h', 'i', 0x00, 0x01, 0x01))
	if want := wml11Prolog + "<wml><p>hi</p></wml>"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileTokenSixtySevenIsCard(t *testing.T) {
	// 0x67 carries the content bit over base token 0x27, which is card.
	got := mustDecompile(t, []byte{0x01, 0x04, 0x00, 0x00, 0x67, 0x60, 0x03, 'h', 'i', 0x00, 0x01, 0x01})
	if want := wml11Prolog + "<card><p>hi</p></card>"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileDocTypes(t *testing.T) {
	cases := map[byte]string{
		0x09: "WML 1.2//EN\" \"http://www.wapforum.org/DTD/wml12.dtd\">",
		0x0A: "WML 1.3//EN\" \"http://www.wapforum.org/DTD/wml13.dtd\">",
	}
	for id, want := range cases {
		got := mustDecompile(t, []byte{0x02, id, 0x6A, 0x00, 0x26})
		if !strings.Contains(got, want) {
			t.Fatalf("public id %#02x: %q", id, got)
		}
	}
	got := mustDecompile(t, []byte{0x01, 0x7E, 0x6A, 0x00, 0x26})
	if strings.Contains(got, "DOCTYPE") {
		t.Fatalf("unknown public id must not emit a doctype: %q", got)
	}
	if !strings.HasSuffix(got, "<br/>") {
		t.Fatalf("body: %q", got)
	}
}

func TestDecompilePublicIDFromStringTable(t *testing.T) {
	table := "-//WAPFORUM//DTD WML 1.3//EN\x00"
	wmlc := []byte{0x03, 0x00, 0x00, 0x6A, byte(len(table))}
	wmlc = append(wmlc, table...)
	wmlc = append(wmlc, 0x3F)
	documentOut, err := DecompileDocument(wmlc, 4096)
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	if !strings.Contains(documentOut.Text, "DTD WML 1.3") || !strings.HasSuffix(documentOut.Text, "<wml/>") {
		t.Fatalf("text: %q", documentOut.Text)
	}
	if documentOut.Header.VersionString() != "1.3" || !documentOut.Header.HasPublicIDIndex {
		t.Fatalf("header: %+v", documentOut.Header)
	}
}

func TestDecompileAttributes(t *testing.T) {
	body := []byte{
		0xAB,                             // go, attributes, no content
		0x4B, 0x03, 'e', 'x', 0x00, 0x85, // href="http://" "ex" ".com/"
		0x1C,                             // method="post"
		0x01,
	}
	got := mustDecompile(t, doc11(body...))
	if want := wml11Prolog + `<go href="http://ex.com/" method="post"/>`; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileAttributeVariablesAndTableRefs(t *testing.T) {
	table := "dest\x00url\x00"
	body := []byte{
		0xE0,                              // p with attributes and content
		0x4A, 0x83, 0x00, 0x41, 'q', 0x00, // href: table "dest" then $(q:e)
		0x01,
		0x80, 0x05, // $(url)
		0x01,
	}
	got := mustDecompile(t, docWithTable(table, body...))
	if want := wml11Prolog + `<p href="dest$(q:e)">$(url)</p>`; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileEntitiesVariablesAndOpaque(t *testing.T) {
	body := []byte{
		0x60,
		0x02, 0x81, 0x00, // &#128;
		0x42, 'v', 0x00, // $(v:u)
		0xC3, 0x02, 0xAA, 0xBB, // opaque dropped
		0x43,       // PI token only
		0x00, 0x00, // switch page
		0x83, 0x40, // string table ref out of range
		0x01,
	}
	got := mustDecompile(t, doc11(body...))
	if want := wml11Prolog + "<p>&#128;$(v:u)</p>"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileLiteralElements(t *testing.T) {
	table := "custom\x00"
	body := []byte{
		0x44, 0x00, // <custom>
		0x84, 0x00, 0x05, 0x03, 'x', 0x00, 0x01, // <custom/>, attributes skipped
		0x04, 0x30, // out of range name
		0x01,
	}
	got := mustDecompile(t, docWithTable(table, body...))
	if want := wml11Prolog + "<custom><custom/><unknown/></custom>"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileUnknownElementIsSkipped(t *testing.T) {
	got := mustDecompile(t, doc11(0x3A, 0x60, 0x03, 'a', 0x00, 0x01))
	if want := wml11Prolog + "<p>a</p>"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecompileStackOverflowDropsExtraPushes(t *testing.T) {
	body := make([]byte, 0, 64)
	for i := 0; i < StackDepth+8; i++ {
		body = append(body, 0x60)
	}
	body = append(body, 0x03, 'x', 0x00)
	got := mustDecompile(t, doc11(body...))
	want := wml11Prolog + strings.Repeat("<p>", StackDepth+8) + "x" + strings.Repeat("</p>", StackDepth)
	if got != want {
		t.Fatalf("unexpected overflow rendering: %q", got)
	}
}

func TestDecompileEndOnEmptyStackIsNoop(t *testing.T) {
	got := mustDecompile(t, doc11(0x01, 0x01, 0x26))
	if want := wml11Prolog + "<br/>"; got != want {
		t.Fatalf("got=%q", got)
	}
}

func TestDecompileTruncatesSilently(t *testing.T) {
	body := []byte{0x60, 0x03}
	body = append(body, strings.Repeat("z", 300)...)
	body = append(body, 0x00, 0x01)
	document, err := DecompileDocument(doc11(body...), MinCapacity+100)
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	if len(document.Text) > MinCapacity+100 {
		t.Fatalf("output exceeds capacity: %d", len(document.Text))
	}
	if !document.Truncated {
		t.Fatalf("expected truncation to be reported")
	}
	if !strings.HasPrefix(document.Text, wml11Prolog+"<p>zzz") {
		t.Fatalf("unexpected prefix: %q", document.Text)
	}
}

func TestDecompileRejectsMalformedInput(t *testing.T) {
	if _, err := Decompile([]byte{0x01, 0x04, 0x6A}, 4096); !errors.Is(err, ErrShortDocument) {
		t.Fatalf("short: %v", err)
	}
	if _, err := Decompile(doc11(0x26), MinCapacity-1); !errors.Is(err, ErrSmallCapacity) {
		t.Fatalf("capacity: %v", err)
	}
	if _, err := Decompile([]byte{0x01, 0x04, 0x6A, 0x10, 'a'}, 4096); !errors.Is(err, ErrStringTable) {
		t.Fatalf("string table: %v", err)
	}
	if _, err := Decompile([]byte{0x01, 0x84, 0x84, 0x84}, 4096); !errors.Is(err, ErrBadHeader) {
		t.Fatalf("bad header: %v", err)
	}
}
