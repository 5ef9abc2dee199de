package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-fwd/internal/dns/common/clock"
	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/repos/dnscache"
)

// fakeUpstream is a miekg/dns server answering example.com A and returning
// NXDOMAIN for everything else.
type fakeUpstream struct {
	addr    string
	queries atomic.Int32
}

func startFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	up := &fakeUpstream{addr: pc.LocalAddr().String()}
	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			up.queries.Add(1)
			m := new(dns.Msg)
			m.SetReply(r)
			m.RecursionAvailable = true
			if r.Question[0].Name == "example.com." && r.Question[0].Qtype == dns.TypeA {
				rr, _ := dns.NewRR("example.com. 300 IN A 93.184.216.34")
				m.Answer = append(m.Answer, rr)
			} else {
				m.Rcode = dns.RcodeNameError
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = server.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })
	return up
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, pc.Close())
	return port
}

func exchange(t *testing.T, addr, name string) *dns.Msg {
	t.Helper()
	c := &dns.Client{Net: "udp", Timeout: 2 * time.Second}
	m := new(dns.Msg)
	m.SetQuestion(name, dns.TypeA)
	r, _, err := c.Exchange(m, addr)
	require.NoError(t, err)
	return r
}

func TestE2E_ForwardCacheAndBlock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	up := startFakeUpstream(t)
	dir := t.TempDir()
	listFile := filepath.Join(dir, "block.txt")
	require.NoError(t, os.WriteFile(listFile, []byte("*.ads.example\n"), 0o644))

	cfg := defaultConfig(t)
	cfg.Port = freeUDPPort(t)
	cfg.Upstream = []string{up.addr}
	cfg.UpstreamTimeout = time.Second
	cfg.SnapshotPath = filepath.Join(dir, "cache.db")
	cfg.BlocklistFiles = []string{listFile}

	app, err := buildApplication(cfg, log.NewNoopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- app.Run(ctx) }()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Port))
	require.Eventually(t, func() bool {
		c := &dns.Client{Net: "udp", Timeout: 200 * time.Millisecond}
		m := new(dns.Msg)
		m.SetQuestion("warmup.ads.example.", dns.TypeA)
		_, _, err := c.Exchange(m, addr)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)

	t.Run("miss forwards", func(t *testing.T) {
		r := exchange(t, addr, "example.com.")
		assert.Equal(t, dns.RcodeSuccess, r.Rcode)
		require.Len(t, r.Answer, 1)
		assert.Equal(t, "93.184.216.34", r.Answer[0].(*dns.A).A.String())
		assert.Equal(t, int32(1), up.queries.Load())
	})

	t.Run("hit served from cache", func(t *testing.T) {
		r := exchange(t, addr, "EXAMPLE.com.")
		assert.True(t, r.Response)
		assert.True(t, r.RecursionAvailable)
		require.Len(t, r.Answer, 1)
		assert.Equal(t, "EXAMPLE.com.", r.Answer[0].Header().Name)
		assert.LessOrEqual(t, r.Answer[0].Header().Ttl, uint32(300))
		assert.Equal(t, int32(1), up.queries.Load())
	})

	t.Run("upstream errors are relayed and not cached", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			r := exchange(t, addr, "nxdomain.example.")
			assert.Equal(t, dns.RcodeNameError, r.Rcode)
		}
		assert.Equal(t, int32(3), up.queries.Load())
	})

	t.Run("blocked names are refused locally", func(t *testing.T) {
		r := exchange(t, addr, "banner.ads.example.")
		assert.Equal(t, dns.RcodeRefused, r.Rcode)
		assert.Empty(t, r.Answer)
		assert.Equal(t, int32(3), up.queries.Load())
	})

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	restored, err := dnscache.New(16, clock.RealClock{})
	require.NoError(t, err)
	n, err := restored.LoadSnapshot(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, restored.Contains(domain.Question{
		Name:  domain.MustParseName("example.com."),
		Type:  domain.RRTypeA,
		Class: domain.RRClassIN,
	}))
}
