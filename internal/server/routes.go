package server

import (
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/meshwap/internal/auth"
	"github.com/danmuck/meshwap/internal/observability"
	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/base91"
	"github.com/danmuck/meshwap/internal/protocol/wbxml"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
	"github.com/danmuck/meshwap/internal/protocol/wsp"
)

var errNoPayload = errors.New("one of hex or text is required")

// payload carries binary input either hex-encoded or as plain text.
type payload struct {
	Hex  string `json:"hex"`
	Text string `json:"text"`
}

func (p payload) bytes() ([]byte, error) {
	switch {
	case p.Hex != "":
		return hex.DecodeString(p.Hex)
	case p.Text != "":
		return []byte(p.Text), nil
	default:
		return nil, errNoPayload
	}
}

type encodeRequest struct {
	payload
}

type decodeRequest struct {
	Encoded string `json:"encoded" binding:"required"`
}

type requestRequest struct {
	URL        string `json:"url" binding:"required"`
	Method     string `json:"method"`
	TID        byte   `json:"tid"`
	HostHeader *bool  `json:"host_header"`
	UserAgent  string `json:"user_agent"`
}

type replyRequest struct {
	payload
	// WithoutTID marks input that starts at the PDU type byte.
	WithoutTID bool `json:"without_tid"`
	Decompile  bool `json:"decompile"`
}

type decompileRequest struct {
	payload
	Capacity int `json:"capacity"`
}

type fragmentRequest struct {
	payload
	DestPort uint16 `json:"dest_port"`
	SrcPort  uint16 `json:"src_port"`
	Budget   int    `json:"budget"`
}

type fragmentPart struct {
	Hex  string `json:"hex"`
	Text string `json:"text"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (w *Workbench) registerRoutes() {
	r := w.router
	r.GET("/health", w.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	if w.opts.Token != "" {
		v1.Use(auth.Require(auth.StaticToken{Token: w.opts.Token}))
	}
	v1.POST("/base91/encode", w.base91Encode)
	v1.POST("/base91/decode", w.base91Decode)
	v1.POST("/wsp/request", w.wspRequest)
	v1.POST("/wsp/reply", w.wspReply)
	v1.POST("/wmlc/decompile", w.wmlcDecompile)
	v1.POST("/wdp/fragment", w.wdpFragment)
}

func (w *Workbench) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(w.startedAt).String(),
		"service": w.opts.Name,
		"version": Version,
	})
}

func (w *Workbench) base91Encode(c *gin.Context) {
	var req encodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	raw, err := req.bytes()
	if err != nil {
		badRequest(c, err)
		return
	}
	encoded := base91.EncodeToString(raw)
	c.JSON(http.StatusOK, gin.H{
		"encoded": encoded,
		"bytes":   len(raw),
		"length":  len(encoded),
	})
}

func (w *Workbench) base91Decode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	raw, err := base91.DecodeString(req.Encoded)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hex":   hex.EncodeToString(raw),
		"bytes": len(raw),
	})
}

func (w *Workbench) wspRequest(c *gin.Context) {
	var req requestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	method, err := wsp.ParseMethod(req.Method)
	if err != nil {
		badRequest(c, err)
		return
	}
	b := wsp.DefaultRequestBuilder(req.TID)
	b.Method = method
	if req.HostHeader != nil {
		b.HostHeader = *req.HostHeader
	}
	if req.UserAgent != "" {
		b.UserAgent = req.UserAgent
	}
	pdu, err := b.Build(req.URL)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hex":    hex.EncodeToString(pdu),
		"bytes":  len(pdu),
		"method": method.String(),
	})
}

func (w *Workbench) wspReply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	raw, err := req.bytes()
	if err != nil {
		badRequest(c, err)
		return
	}
	var resp wsp.Response
	if req.WithoutTID {
		resp, err = wsp.DecodeWithoutTID(raw)
	} else {
		resp, err = wsp.Decode(raw)
	}
	if err != nil {
		badRequest(c, err)
		return
	}
	out := gin.H{
		"wsp_status":     resp.WSPStatus,
		"status":         resp.StatusCode,
		"status_text":    resp.StatusText,
		"content_type":   resp.ContentType,
		"content_length": resp.ContentLength,
		"server":         resp.Server,
		"location":       resp.Location,
		"body_bytes":     len(resp.Body),
	}
	if !resp.Date.IsZero() {
		out["date"] = resp.Date.UTC().Format(time.RFC1123)
	}
	if req.Decompile && resp.IsCompiledMarkup() {
		doc, err := wbxml.DecompileDocument(resp.Body, w.opts.DecompileCapacity)
		if err != nil {
			badRequest(c, err)
			return
		}
		observability.RecordDecompile(doc.Truncated)
		out["wml"] = doc.Text
		out["truncated"] = doc.Truncated
	}
	c.JSON(http.StatusOK, out)
}

func (w *Workbench) wmlcDecompile(c *gin.Context) {
	var req decompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	raw, err := req.bytes()
	if err != nil {
		badRequest(c, err)
		return
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = w.opts.DecompileCapacity
	}
	doc, err := wbxml.DecompileDocument(raw, capacity)
	if err != nil {
		badRequest(c, err)
		return
	}
	observability.RecordDecompile(doc.Truncated)
	out := gin.H{
		"wml":       doc.Text,
		"truncated": doc.Truncated,
		"version":   doc.Header.VersionString(),
		"public_id": doc.Header.PublicID,
	}
	if dt, ok := doc.Header.DocType(); ok {
		out["doctype"] = dt
	}
	c.JSON(http.StatusOK, out)
}

func (w *Workbench) wdpFragment(c *gin.Context) {
	var req fragmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	raw, err := req.bytes()
	if err != nil {
		badRequest(c, err)
		return
	}
	budget := req.Budget
	if budget == 0 {
		budget = w.opts.Budget
	}
	f := wdp.Fragmenter{Budget: budget}
	datagrams, err := f.Fragment(raw, req.DestPort, req.SrcPort)
	if err != nil {
		badRequest(c, err)
		return
	}
	parts := make([]fragmentPart, 0, len(datagrams))
	for _, d := range datagrams {
		text, err := protocol.EncodeText(d, w.opts.MaxText)
		if err != nil {
			badRequest(c, err)
			return
		}
		parts = append(parts, fragmentPart{Hex: hex.EncodeToString(d), Text: text})
	}
	c.JSON(http.StatusOK, gin.H{
		"parts":     parts,
		"count":     len(parts),
		"part_size": f.PartSize(),
	})
}
