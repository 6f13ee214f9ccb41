// Command dnsd is the §6 server binary: it loads a jnamed.conf-style
// configuration, builds the zone catalog, cache, TSIG provider and
// metrics recorder, and serves UDP/TCP on a pool of SO_REUSEPORT
// listeners, generalizing the teacher's Server.Run
// (internal/dns/server/server.go).
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bdijkstra82/dnsjava/internal/core/cache"
	"github.com/bdijkstra82/dnsjava/internal/core/config"
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/responder"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/tsig"
	"github.com/bdijkstra82/dnsjava/internal/core/zone"
	"github.com/bdijkstra82/dnsjava/internal/metrics"
	"github.com/bdijkstra82/dnsjava/internal/zoneio"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	path := "jnamed.conf"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(context.Background(), logger, path); err != nil {
		logger.Error("fatal startup error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dnsd: open config %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := config.Parse(f)
	if err != nil {
		return fmt.Errorf("dnsd: parse config: %w", err)
	}

	zones, err := loadPrimaryZones(cfg, logger)
	if err != nil {
		return err
	}
	for _, sec := range cfg.Secondaries {
		logger.Warn("secondary zones are not loaded by this build", "origin", sec.Origin, "remote", sec.Remote)
	}

	c, err := cache.New(cache.Config{})
	if err != nil {
		return fmt.Errorf("dnsd: new cache: %w", err)
	}

	var verifier responder.Verifier
	var signer responder.Signer
	keys := make(map[string][]byte, len(cfg.Keys))
	if len(cfg.Keys) > 0 {
		tsigKeys := make([]tsig.Key, 0, len(cfg.Keys))
		for _, k := range cfg.Keys {
			alg, err := name.Parse(k.Algorithm)
			if err != nil {
				return fmt.Errorf("dnsd: key %s: bad algorithm %q: %w", k.Name, k.Algorithm, err)
			}
			tsigKeys = append(tsigKeys, tsig.Key{Name: k.Name, Secret: k.Secret, Algorithm: alg})
			keys[k.Name.CacheKey()] = k.Secret
		}
		provider := tsig.New(tsigKeys, 0)
		verifier, signer = provider, provider
	}

	rec := metrics.New(prometheus.DefaultRegisterer)
	resp := responder.New(zones, c, keys, verifier, signer)
	resp.SetMetrics(rec)

	addr := net.JoinHostPort(cfg.Address, fmt.Sprintf("%d", cfg.Port))
	logger.Info("starting dnsd", "addr", addr, "zones", len(zones))

	return serve(ctx, addr, resp, logger)
}

func loadPrimaryZones(cfg *config.Config, logger *slog.Logger) ([]*zone.Zone, error) {
	zones := make([]*zone.Zone, 0, len(cfg.Primaries))
	for _, p := range cfg.Primaries {
		f, err := os.Open(p.File)
		if err != nil {
			return nil, fmt.Errorf("dnsd: open zone file %q: %w", p.File, err)
		}
		records, err := zoneio.NewParser(p.Origin).Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("dnsd: parse zone file %q: %w", p.File, err)
		}
		z, err := zone.New(p.Origin, records)
		if err != nil {
			return nil, fmt.Errorf("dnsd: build zone %s: %w", p.Origin, err)
		}
		logger.Info("loaded primary zone", "origin", p.Origin, "file", p.File, "records", len(records))
		zones = append(zones, z)
	}
	return zones, nil
}

// serve runs one SO_REUSEPORT UDP listener per CPU plus a single TCP
// listener, exactly as the teacher's Server.Run pools UDP readers but
// funnels every packet straight through resp.Respond rather than a
// worker queue, since Respond does no blocking I/O of its own.
func serve(ctx context.Context, addr string, resp *responder.Responder, logger *slog.Logger) error {
	lc := reuseportListenConfig()

	for i := 0; i < runtime.NumCPU(); i++ {
		conn, err := lc.ListenPacket(ctx, "udp", addr)
		if err != nil {
			return fmt.Errorf("dnsd: listen udp: %w", err)
		}
		go serveUDP(conn, resp, logger)
	}

	tcpListener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dnsd: listen tcp: %w", err)
	}
	go serveTCP(tcpListener, resp, logger)

	select {} // the UDP/TCP goroutines run until the process exits
}

func serveUDP(conn net.PacketConn, resp *responder.Responder, logger *slog.Logger) {
	defer conn.Close()
	buf := make([]byte, 65535)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		go func() {
			out := resp.Respond(data, responder.Options{Transport: responder.UDP})
			if out == nil {
				return
			}
			if _, err := conn.WriteTo(out, addr); err != nil {
				logger.Warn("udp write failed", "addr", addr, "error", err)
			}
		}()
	}
}

func serveTCP(ln net.Listener, resp *responder.Responder, logger *slog.Logger) {
	defer ln.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			continue
		}
		go handleTCPConnection(conn, resp, logger)
	}
}

func handleTCPConnection(conn net.Conn, resp *responder.Responder, logger *slog.Logger) {
	defer conn.Close()
	for {
		var lenBuf [2]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		data := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
		if _, err := io.ReadFull(conn, data); err != nil {
			return
		}

		opts := responder.Options{Transport: responder.TCP}
		if isAXFR(data) {
			req, err := message.Decode(data)
			if err == nil && len(req.Question) > 0 {
				q := req.Question[0]
				opts.AXFRSink = func(set *rr.RRset) error {
					return writeAXFRMessage(conn, req.Header.ID, q, set)
				}
			}
		}
		out := resp.Respond(data, opts)
		if out == nil {
			continue
		}
		if err := writeTCPFrame(conn, out); err != nil {
			logger.Warn("tcp write failed", "error", err)
			return
		}
	}
}

// isAXFR peeks the QTYPE of the first question without a full
// message.Decode, matching the teacher's own pre-check in
// handleTCPConnection before branching into handleAXFR.
func isAXFR(raw []byte) bool {
	const headerLen = 12
	if len(raw) < headerLen+1 {
		return false
	}
	i := headerLen
	for i < len(raw) && raw[i] != 0 {
		if raw[i]&0xC0 != 0 {
			return false // compressed QNAME: never produced by a well-formed query
		}
		i += int(raw[i]) + 1
	}
	i++ // null label
	if i+4 > len(raw) {
		return false
	}
	qtype := binary.BigEndian.Uint16(raw[i : i+2])
	return rr.Type(qtype) == rr.TypeAXFR
}

func writeTCPFrame(conn net.Conn, payload []byte) error {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

// writeAXFRMessage wraps one RRset in its own response message, matching
// the teacher's sendSingleRecordResponse framing for AXFR streaming: one
// TCP-framed message per set, all sharing the original question and ID.
func writeAXFRMessage(conn net.Conn, id uint16, q message.Question, set *rr.RRset) error {
	resp := &message.Message{Header: message.Header{ID: id, Response: true, Authoritative: true}}
	resp.Question = append(resp.Question, q)
	resp.Answer = append(resp.Answer, set.Records()...)
	out, err := resp.Encode(0)
	if err != nil {
		return err
	}
	return writeTCPFrame(conn, out)
}
