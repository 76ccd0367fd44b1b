package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/meshwap/internal/observability"
	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/session"
	"github.com/danmuck/meshwap/internal/protocol/wbxml"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
	"github.com/danmuck/meshwap/internal/protocol/wsp"
)

const (
	roleClient = "client"
	// DefaultDecompileCapacity bounds decompiled WML output.
	DefaultDecompileCapacity = 16 * 1024
)

type ClientConfig struct {
	Node string
	// Proxy is the mesh id of the proxy node requests go to.
	Proxy             string
	Session           session.Config
	Budget            int
	MaxText           int
	DecompileCapacity int
	HostHeader        bool
	// UserAgent and MaxPDU override the request builder defaults when set.
	UserAgent  string
	MaxPDU     int
	Reassembly wdp.ReassemblerConfig
	Logger     *zerolog.Logger
	Rand       *rand.Rand
}

// Client is the access point role. One exchange is outstanding at a time.
type Client struct {
	mu        sync.Mutex
	cfg       ClientConfig
	transport Transport
	log       zerolog.Logger
	tracker   *session.Tracker
	reasm     *wdp.Reassembler
	frag      wdp.Fragmenter
	discovery *session.Discovery
	pending   *Exchange
}

func NewClient(cfg ClientConfig, transport Transport) *Client {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Budget <= 0 {
		cfg.Budget = wdp.DefaultBudget
	}
	if cfg.DecompileCapacity < wbxml.MinCapacity {
		cfg.DecompileCapacity = DefaultDecompileCapacity
	}
	cfg.Reassembly.Budget = cfg.Budget
	log := loggerOrNop(cfg.Logger).With().Str("role", roleClient).Str("node", cfg.Node).Logger()
	return &Client{
		cfg:       cfg,
		transport: transport,
		log:       log,
		tracker:   session.NewTracker(cfg.Session, cfg.Rand),
		reasm:     wdp.NewReassembler(cfg.Reassembly),
		frag:      wdp.Fragmenter{Budget: cfg.Budget, Rand: cfg.Rand},
		discovery: session.NewDiscovery(cfg.Session, cfg.Rand),
	}
}

// Exchange is a client fetch in flight. Done closes once a result or error
// is available.
type Exchange struct {
	ID        uint64
	Method    string
	URL       string
	SrcPort   uint16
	StartedAt time.Time

	done chan struct{}

	mu      sync.Mutex
	parts   int
	preview *wsp.Response
	result  Result
	err     error
}

func newExchange(s *session.Exchange) *Exchange {
	return &Exchange{
		ID:        s.ID,
		Method:    s.Method,
		URL:       s.URL,
		SrcPort:   s.SrcPort,
		StartedAt: s.StartedAt,
		done:      make(chan struct{}),
	}
}

func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Result returns the outcome, or ErrPending before Done closes.
func (e *Exchange) Result() (Result, error) {
	select {
	case <-e.done:
	default:
		return Result{}, ErrPending
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.err
}

// Wait blocks until the exchange completes or ctx ends.
func (e *Exchange) Wait(ctx context.Context) (Result, error) {
	select {
	case <-e.done:
		return e.Result()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Preview returns the reply headers decoded from the first part, letting
// the HTTP side answer before the body is complete.
func (e *Exchange) Preview() (wsp.Response, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preview == nil {
		return wsp.Response{}, false
	}
	return *e.preview, true
}

// Parts is the number of datagrams received for this exchange so far.
func (e *Exchange) Parts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parts
}

func (e *Exchange) complete(res Result, err error) {
	e.mu.Lock()
	e.result, e.err = res, err
	e.mu.Unlock()
	close(e.done)
}

// Fetch builds a WSP request for rawURL and sends it to the proxy. The
// returned exchange completes through HandleText or times out in Poll.
func (c *Client) Fetch(ctx context.Context, method, rawURL string, now time.Time) (*Exchange, error) {
	m, err := wsp.ParseMethod(method)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	sess, err := c.tracker.Begin(m.String(), rawURL, now)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	b := wsp.DefaultRequestBuilder(sess.TransactionID)
	b.Method = m
	b.HostHeader = c.cfg.HostHeader
	if c.cfg.UserAgent != "" {
		b.UserAgent = c.cfg.UserAgent
	}
	if c.cfg.MaxPDU > 0 {
		b.MaxPDU = c.cfg.MaxPDU
	}
	pdu, err := b.Build(rawURL)
	if err == nil {
		var texts []string
		if texts, err = encodeDatagrams(c.frag, c.cfg.MaxText, pdu, sess.DestPort, sess.SrcPort); err == nil {
			ex := newExchange(sess)
			c.pending = ex
			c.mu.Unlock()
			if err := c.send(ctx, ex, texts); err != nil {
				return nil, err
			}
			return ex, nil
		}
	}
	c.tracker.Finish()
	c.mu.Unlock()
	return nil, fmt.Errorf("gateway: build request for %s: %w", rawURL, err)
}

func (c *Client) send(ctx context.Context, ex *Exchange, texts []string) error {
	for i, text := range texts {
		if err := c.transport.SendText(ctx, c.cfg.Proxy, text); err != nil {
			err = fmt.Errorf("gateway: send part %d/%d to %s: %w", i+1, len(texts), c.cfg.Proxy, err)
			c.mu.Lock()
			c.finishLocked(ex, Result{}, err, time.Now())
			c.mu.Unlock()
			observability.RecordDatagrams(roleClient, "sent", i)
			return err
		}
	}
	observability.RecordDatagrams(roleClient, "sent", len(texts))
	c.log.Debug().
		Uint64("exchange", ex.ID).
		Str("url", ex.URL).
		Uint16("src_port", ex.SrcPort).
		Int("parts", len(texts)).
		Msg("request sent")
	return nil
}

// HandleText ingests one text message from the mesh. Datagrams that do
// not belong to the outstanding exchange are dropped with an error.
func (c *Client) HandleText(sender, text string, now time.Time) error {
	datagram, _, err := protocol.DecodeText(text)
	if err != nil {
		observability.RecordDrop(roleClient, "invalid_datagram")
		return err
	}
	h, payload, err := wdp.ParseHeader(datagram)
	if err != nil {
		observability.RecordDrop(roleClient, "invalid_datagram")
		return err
	}
	observability.RecordDatagrams(roleClient, "received", 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	ex := c.pending
	if ex == nil {
		observability.RecordDrop(roleClient, "no_exchange")
		return session.ErrNoExchange
	}
	if _, err := c.tracker.Match(h.DestPort, now); err != nil {
		observability.RecordDrop(roleClient, "stale_port")
		c.log.Warn().Err(err).Str("sender", sender).Msg("stale datagram dropped")
		return err
	}

	ex.mu.Lock()
	ex.parts++
	if ex.preview == nil && (!h.Concatenated || h.Part == 1) {
		if resp, err := wsp.Decode(payload); err == nil {
			ex.preview = &resp
		}
	}
	ex.mu.Unlock()

	msg, done, err := c.reasm.Accept(sender, datagram, now)
	if err != nil {
		observability.RecordDrop(roleClient, "reassembly")
		c.log.Warn().Err(err).Str("sender", sender).Msg("part rejected")
		return err
	}
	if !done {
		return nil
	}
	if msg.Parts > 1 {
		observability.RecordReassembly(roleClient, "completed", 1)
	}
	res, err := c.buildResult(msg)
	c.finishLocked(ex, res, err, now)
	return nil
}

func (c *Client) buildResult(msg wdp.Message) (Result, error) {
	resp, err := wsp.Decode(msg.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	res := Result{
		StatusCode:    resp.StatusCode,
		StatusText:    resp.StatusText,
		ContentType:   resp.ContentType,
		ContentLength: resp.ContentLength,
		Server:        resp.Server,
		Location:      resp.Location,
		Body:          resp.Body,
		Parts:         msg.Parts,
	}
	if !resp.IsCompiledMarkup() || len(resp.Body) == 0 {
		return res, nil
	}
	doc, err := wbxml.DecompileDocument(resp.Body, c.cfg.DecompileCapacity)
	if err != nil {
		c.log.Warn().Err(err).Int("bytes", len(resp.Body)).Msg("wmlc decompile failed, passing body through")
		return res, nil
	}
	observability.RecordDecompile(doc.Truncated)
	res.Body = []byte(doc.Text)
	res.ContentLength = len(res.Body)
	res.ContentType = WMLContentType
	res.Decompiled = true
	res.Truncated = doc.Truncated
	return res, nil
}

func (c *Client) finishLocked(ex *Exchange, res Result, err error, now time.Time) {
	if c.pending != ex {
		return
	}
	c.pending = nil
	c.tracker.Finish()
	res.Duration = now.Sub(ex.StartedAt)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	observability.RecordExchange(outcome, res.Duration)
	ex.complete(res, err)
}

// Pending returns the outstanding exchange, if any.
func (c *Client) Pending() (*Exchange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.pending != nil
}

// StartDiscovery pings the proxy to establish a mesh path.
func (c *Client) StartDiscovery(ctx context.Context, now time.Time) error {
	p, ok := c.transport.(Pinger)
	if !ok {
		return ErrNoPinger
	}
	c.mu.Lock()
	c.discovery.Start(now)
	c.mu.Unlock()
	c.log.Info().Str("proxy", c.cfg.Proxy).Msg("proxy discovery started")
	return p.Ping(ctx, c.cfg.Proxy)
}

// PathFound ends discovery with the reported hop count.
func (c *Client) PathFound(pathLen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discovery.Found(pathLen)
	c.log.Info().Int("path_len", pathLen).Msg("proxy path discovered")
}

func (c *Client) DiscoveryState() session.DiscoveryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discovery.State()
}

// Poll evicts stale reassembly slots, times out the outstanding exchange
// and sends due discovery pings.
func (c *Client) Poll(ctx context.Context, now time.Time) error {
	c.mu.Lock()
	if n := c.reasm.Sweep(now); n > 0 {
		observability.RecordReassembly(roleClient, "evicted", n)
		c.log.Warn().Int("slots", n).Msg("reassembly timed out")
	}
	if ex := c.pending; ex != nil {
		if sess, ok := c.tracker.Current(); ok && sess.Expired(now) {
			c.log.Warn().Uint64("exchange", ex.ID).Str("url", ex.URL).Int("parts", ex.Parts()).Msg("exchange timed out")
			c.finishLocked(ex, Result{}, fmt.Errorf("%w: %s", ErrTimeout, ex.URL), now)
		}
	}
	wasSearching := c.discovery.InProgress()
	ping := c.discovery.Poll(now)
	attempt := c.discovery.Attempts()
	if wasSearching && c.discovery.State() == session.DiscoveryFailed {
		c.log.Warn().Int("attempts", attempt).Str("proxy", c.cfg.Proxy).Msg("proxy discovery failed")
	}
	c.mu.Unlock()

	if !ping {
		return nil
	}
	p, ok := c.transport.(Pinger)
	if !ok {
		return ErrNoPinger
	}
	c.log.Info().Int("attempt", attempt).Msg("proxy discovery retry")
	return p.Ping(ctx, c.cfg.Proxy)
}
