// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer implements a minimal peer manager for the header-only node:
// it dials a remote address, performs the version/verack handshake, keeps
// the connection alive with ping/pong, and frames inv/getheaders/headers
// traffic for the Sync Driver to drive. A production deployment would
// replace this with a full connection manager; this one is real enough to
// run end-to-end against an actual Bitcoin-family node.
package peer

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/headerlog"
	"github.com/blockpeer/headernode/wire"
)

var log = headerlog.Logger(headerlog.SubsystemPeer)

// maxBanScore is the misbehaviour threshold past which a peer is
// disconnected, mirroring the teacher's ban-score convention.
const maxBanScore = 100

// handshakeTimeout bounds how long the version/verack exchange may take.
const handshakeTimeout = 10 * time.Second

// pingInterval is how often the peer is probed with a ping.
const pingInterval = 2 * time.Minute

// Handlers are the Sync Driver's hooks into peer traffic. OnHeaders and
// OnInv are called from the peer's single read goroutine; OnVerAck is called
// once from Dial's goroutine when the handshake completes. Handlers that
// need to touch shared state must serialize with whatever else touches it.
type Handlers struct {
	OnHeaders func(p *Peer, msg *wire.MsgHeaders)
	OnInv     func(p *Peer, msg *wire.MsgInv)
	OnVerAck  func(p *Peer)
}

// Peer is a single connection to another node on the network.
type Peer struct {
	addr     string
	params   *chaincfg.Params
	handlers Handlers

	conn net.Conn

	banScore int32
	verAcked atomic.Bool

	mu       sync.Mutex
	closed   bool
	lastRecv time.Time
}

// Dial connects to addr, completes the version/verack handshake, and
// starts the peer's background read and ping loops. The returned Peer is
// ready for the Sync Driver to send getheaders requests to.
func Dial(addr string, params *chaincfg.Params, handlers Handlers) (*Peer, error) {
	conn, err := net.DialTimeout("tcp", addr, handshakeTimeout)
	if err != nil {
		return nil, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}

	p := &Peer{
		addr:     addr,
		params:   params,
		handlers: handlers,
		conn:     conn,
		lastRecv: time.Now(),
	}

	if err := p.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	go p.readLoop()
	go p.pingLoop()

	return p, nil
}

func (p *Peer) handshake() error {
	p.conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer p.conn.SetDeadline(time.Time{})

	version := wire.NewMsgVersion(randomNonce(), 0, "/headernode:0.1.0/")
	if err := wire.WriteMessage(p.conn, version, p.params.Net); err != nil {
		return errs.New(errs.Protocol, "failed to send version message")
	}

	var gotVersion, gotVerAck bool
	for !gotVersion || !gotVerAck {
		msg, err := wire.ReadMessage(p.conn, p.params.Net, wire.MakeEmptyMessage)
		if err != nil {
			return errs.New(errs.Protocol, "handshake read failed")
		}
		switch m := msg.(type) {
		case *wire.MsgVersion:
			gotVersion = true
			ack := &wire.MsgVerAck{}
			if err := wire.WriteMessage(p.conn, ack, p.params.Net); err != nil {
				return errs.New(errs.Protocol, "failed to send verack")
			}
			_ = m
		case *wire.MsgVerAck:
			gotVerAck = true
		default:
			// Ignore anything else a peer sends before completing its own
			// handshake; only version/verack gate progress here.
		}
	}

	p.verAcked.Store(true)
	if p.handlers.OnVerAck != nil {
		p.handlers.OnVerAck(p)
	}
	return nil
}

func (p *Peer) readLoop() {
	for {
		msg, err := wire.ReadMessage(p.conn, p.params.Net, wire.MakeEmptyMessage)
		if err != nil {
			log.Debugf("peer %s read error, disconnecting: %v", p.addr, err)
			p.Disconnect()
			return
		}

		p.mu.Lock()
		p.lastRecv = time.Now()
		p.mu.Unlock()

		switch m := msg.(type) {
		case *wire.MsgHeaders:
			if p.handlers.OnHeaders != nil {
				p.handlers.OnHeaders(p, m)
			}
		case *wire.MsgInv:
			if p.handlers.OnInv != nil {
				p.handlers.OnInv(p, m)
			}
		case *wire.MsgPing:
			pong := wire.NewMsgPong(m.Nonce)
			wire.WriteMessage(p.conn, pong, p.params.Net)
		case *wire.MsgPong:
			// Liveness only; nothing to reconcile.
		}
	}
}

func (p *Peer) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}
		ping := wire.NewMsgPing(randomNonce())
		if err := wire.WriteMessage(p.conn, ping, p.params.Net); err != nil {
			p.Disconnect()
			return
		}
	}
}

// randomNonce generates a random uint64 for version/ping nonces.
func randomNonce() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// SendGetHeaders requests headers starting from locator, stopping at
// stopHash (the zero hash means "as many as the peer has, up to
// MaxHeadersPerMsg").
func (p *Peer) SendGetHeaders(locator headerchain.BlockLocator, stopHash chainhash.Hash) error {
	msg := wire.NewMsgGetHeaders()
	msg.ProtocolVersion = wire.ProtocolVersion
	for i := range locator {
		msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, &locator[i])
	}
	msg.HashStop = stopHash
	if err := wire.WriteMessage(p.conn, msg, p.params.Net); err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return nil
}

// Misbehave increases the peer's ban score by delta and disconnects it if
// the threshold is crossed, logging why.
func (p *Peer) Misbehave(delta int32, reason string) {
	score := atomic.AddInt32(&p.banScore, delta)
	log.Warnf("peer %s misbehaviour (+%d, total %d): %s", p.addr, delta, score, reason)
	if score >= maxBanScore {
		log.Warnf("peer %s exceeded ban score, disconnecting", p.addr)
		p.Disconnect()
	}
}

// Addr returns the peer's remote address.
func (p *Peer) Addr() string {
	return p.addr
}

// Disconnect closes the connection if it is not already closed.
func (p *Peer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.conn.Close()
}

// String implements fmt.Stringer for log output.
func (p *Peer) String() string {
	return fmt.Sprintf("peer(%s)", p.addr)
}
