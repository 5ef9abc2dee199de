// Package resolver holds the resolution engine and the ports it depends on.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/haukened/rr-fwd/internal/dns/common/clock"
	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/common/rrdata"
	"github.com/haukened/rr-fwd/internal/dns/common/utils"
	"github.com/haukened/rr-fwd/internal/dns/domain"
)

// Resolver answers one datagram at a time: blocked names locally, cached
// questions from the cache, and everything else by forwarding upstream.
// It is safe for concurrent use.
type Resolver struct {
	codec      Codec
	cache      Cache
	blocklist  Blocklist
	upstream   UpstreamClient
	clock      clock.Clock
	logger     log.Logger
	blockRCode domain.RCode
	inflight   singleflight.Group
}

// ResolverOptions wires the engine. Blocklist may be nil; BlockRCode
// defaults to REFUSED.
type ResolverOptions struct {
	Codec      Codec
	Cache      Cache
	Blocklist  Blocklist
	Upstream   UpstreamClient
	Clock      clock.Clock
	Logger     log.Logger
	BlockRCode domain.RCode
}

// NewResolver builds a Resolver, filling in defaults for unset options.
func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.BlockRCode == domain.NOERROR {
		opts.BlockRCode = domain.REFUSED
	}
	return &Resolver{
		codec:      opts.Codec,
		cache:      opts.Cache,
		blocklist:  opts.Blocklist,
		upstream:   opts.Upstream,
		clock:      opts.Clock,
		logger:     opts.Logger,
		blockRCode: opts.BlockRCode,
	}
}

// ParseBlockStrategy maps a configured strategy name to the response code
// used for blocked questions.
func ParseBlockStrategy(s string) (domain.RCode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "refused":
		return domain.REFUSED, nil
	case "nxdomain":
		return domain.NXDOMAIN, nil
	default:
		return 0, fmt.Errorf("unknown block strategy %q", s)
	}
}

// HandleRequest decodes request and produces the reply datagram. A nil reply
// means nothing should be sent; err then says why.
func (r *Resolver) HandleRequest(ctx context.Context, request []byte, clientAddr net.Addr) ([]byte, error) {
	req, err := r.codec.DecodeMessage(request, r.clock.Now())
	if err != nil {
		return nil, err
	}
	if req.Header.QR {
		return nil, fmt.Errorf("%w: id=%d", domain.ErrNonQueryMessage, req.Header.ID)
	}

	q, ok := req.FirstQuestion()
	if !ok {
		return nil, fmt.Errorf("%w: query has no question", domain.ErrMalformedMessage)
	}

	if r.blocklist != nil {
		if d := r.blocklist.Decide(q); d.Blocked {
			r.logger.Info(map[string]any{
				"client": addrString(clientAddr),
				"name":   q.Name.String(),
				"apex":   utils.GetApexDomain(q.Name.String()),
				"rule":   d.MatchedRule,
				"kind":   d.Kind.String(),
				"source": d.Source,
			}, "Blocked query")
			return r.blockedReply(req)
		}
	}

	// Only standard queries are cached; other opcodes go straight upstream.
	if req.Header.Opcode != domain.OpcodeQuery {
		return r.upstream.Forward(ctx, req.Raw)
	}

	if rr, remaining, hit := r.cache.Lookup(q); hit {
		r.logger.Debug(map[string]any{
			"question":  q.String(),
			"remaining": remaining.String(),
			"rdata":     rrdata.Describe(rr.Type, rr.Data),
		}, "Cache hit")
		return r.cachedReply(req, q, rr, remaining)
	}

	v, err, shared := r.inflight.Do(flightKey(req.Raw), func() (any, error) {
		return r.forward(ctx, req, q)
	})
	if err != nil {
		return nil, err
	}
	reply := v.([]byte)
	if shared {
		reply = withID(reply, req.Header.ID)
	}
	return reply, nil
}

// forward relays the raw request and caches a usable answer. The returned
// bytes are the upstream reply exactly as received.
func (r *Resolver) forward(ctx context.Context, req *domain.Message, q domain.Question) ([]byte, error) {
	raw, err := r.upstream.Forward(ctx, req.Raw)
	if err != nil {
		return nil, err
	}
	resp, err := r.codec.DecodeMessage(raw, r.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("upstream reply: %w", err)
	}
	if !resp.Header.QR || resp.Header.ID != req.Header.ID {
		return nil, fmt.Errorf("%w: upstream reply id=%d qr=%t for query id=%d",
			domain.ErrMalformedMessage, resp.Header.ID, resp.Header.QR, req.Header.ID)
	}

	fields := map[string]any{"question": q.String(), "rcode": resp.Header.RCode.String()}
	if resp.Header.RCode.IsError() {
		r.logger.Debug(fields, "Relaying upstream error")
		return raw, nil
	}
	rr, ok := answerFor(q, resp.Answers)
	if !ok {
		fields["answers"] = len(resp.Answers)
		r.logger.Debug(fields, "Relaying reply without cacheable answer")
		return raw, nil
	}
	r.cache.Put(q, rr)
	fields["ttl"] = rr.TTL
	fields["rdata"] = rrdata.Describe(rr.Type, rr.Data)
	r.logger.Debug(fields, "Cached upstream answer")
	return raw, nil
}

// answerFor picks the record to cache: the first answer whose type and
// class match the question. An ANY question takes the first answer.
func answerFor(q domain.Question, answers []domain.ResourceRecord) (domain.ResourceRecord, bool) {
	for _, rr := range answers {
		if q.Type == domain.RRTypeANY || (rr.Type == q.Type && rr.Class == q.Class) {
			return rr, true
		}
	}
	return domain.ResourceRecord{}, false
}

func (r *Resolver) cachedReply(req *domain.Message, q domain.Question, rr domain.ResourceRecord, remaining time.Duration) ([]byte, error) {
	ttl := int32(remaining / time.Second)
	answer := domain.ResourceRecord{
		Name:  q.Name,
		Type:  q.Type,
		Class: q.Class,
		TTL:   ttl,
		Data:  rr.Data,
	}
	if q.Type == domain.RRTypeANY {
		answer.Type = rr.Type
	}
	resp := &domain.Message{
		Header:     req.Header,
		Questions:  req.Questions,
		Answers:    []domain.ResourceRecord{answer},
		Authority:  req.Authority,
		Additional: req.Additional,
	}
	resp.Header.QR = true
	resp.Header.RA = true
	return r.codec.EncodeMessage(resp)
}

func (r *Resolver) blockedReply(req *domain.Message) ([]byte, error) {
	resp := &domain.Message{
		Header:    req.Header,
		Questions: req.Questions,
	}
	resp.Header.QR = true
	resp.Header.RA = true
	resp.Header.AA = false
	resp.Header.RCode = r.blockRCode
	return r.codec.EncodeMessage(resp)
}

// flightKey is the request minus its transaction id. Only byte-identical
// queries share an upstream exchange.
func flightKey(raw []byte) string {
	if len(raw) < 2 {
		return string(raw)
	}
	return string(raw[2:])
}

// withID returns a copy of reply carrying the given transaction id.
func withID(reply []byte, id uint16) []byte {
	out := append([]byte(nil), reply...)
	if len(out) >= 2 {
		out[0] = byte(id >> 8)
		out[1] = byte(id)
	}
	return out
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

// IsUpstreamFailure reports whether err came from the upstream round trip.
func IsUpstreamFailure(err error) bool {
	return errors.Is(err, domain.ErrUpstreamTimeout) || errors.Is(err, domain.ErrUpstreamUnreachable)
}

var _ DNSResponder = (*Resolver)(nil)
