// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// headernode is a minimal Bitcoin peer that participates in the P2P
// network solely to acquire, validate, and persist 80-byte block headers
// of the main chain, with no blocks, transactions, wallet, or mining.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/headerlog"
	"github.com/blockpeer/headernode/node"
	"github.com/blockpeer/headernode/wire"
)

var log = headerlog.Logger(headerlog.SubsystemNode)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogRotator(cfg.LogDir); err != nil {
		return err
	}
	if err := setLogLevels(cfg.LogLevel); err != nil {
		return err
	}

	params := cfg.netParams()

	start, err := cfg.startAssertion(params)
	if err != nil {
		return err
	}

	n, err := node.Open(node.Config{
		DataDir:        cfg.DataDir,
		Memory:         cfg.Memory,
		Params:         params,
		StartAssertion: start,
		Checkpoints:    cfg.Checkpoints,
		ConnectAddrs:   cfg.ConnectPeers,
	})
	if err != nil {
		return err
	}
	defer n.Close()

	if len(cfg.ConnectPeers) > 0 {
		if err := n.StartSync(); err != nil {
			log.Warnf("failed to start sync: %v", err)
		}
	}

	srv := newQueryServer(n, cfg.RPCListen)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("query server stopped: %v", err)
		}
	}()
	log.Infof("query API listening on %s", cfg.RPCListen)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Infof("shutting down")
	srv.Close()
	return nil
}

// newQueryServer builds the minimal read-only HTTP query API spec.md §6
// describes as an external collaborator contract: /header/{height},
// /tip, /start-height. No auth, no TLS, no pagination.
func newQueryServer(n *node.Node, addr string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/tip", func(w http.ResponseWriter, r *http.Request) {
		writeEntry(w, n.Tip())
	})

	mux.HandleFunc("/start-height", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int32{"start_height": n.StartHeight()})
	})

	mux.HandleFunc("/header/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/header/")
		entry, ok := lookupEntry(n, key)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeEntry(w, entry)
	})

	return &http.Server{Addr: addr, Handler: mux}
}

// lookupEntry resolves key as either a decimal height or a hex block hash.
func lookupEntry(n *node.Node, key string) (*headerchain.Entry, bool) {
	if height, err := strconv.ParseInt(key, 10, 32); err == nil {
		return n.HeaderByHeight(int32(height))
	}
	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != chainhash.HashSize {
		return nil, false
	}
	var hash chainhash.Hash
	copy(hash[:], raw)
	return n.HeaderByHash(hash)
}

// headerResponse is the JSON shape returned for a single header query.
type headerResponse struct {
	Hash      string `json:"hash"`
	Height    int32  `json:"height"`
	Version   int32  `json:"version"`
	PrevBlock string `json:"prev_block"`
	Bits      uint32 `json:"bits"`
	Timestamp int64  `json:"timestamp"`
	Chainwork string `json:"chainwork,omitempty"`
}

func writeEntry(w http.ResponseWriter, entry *headerchain.Entry) {
	if entry == nil {
		http.Error(w, "chain is empty", http.StatusServiceUnavailable)
		return
	}
	resp := headerResponse{
		Hash:      entry.Hash().String(),
		Height:    entry.Height,
		Version:   entry.Header.Version,
		PrevBlock: entry.Header.PrevBlock.String(),
		Bits:      entry.Header.Bits,
		Timestamp: entry.Header.Timestamp.Unix(),
	}
	if entry.Chainwork != nil {
		resp.Chainwork = entry.Chainwork.Text(16)
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode query response: %v", err)
	}
}

// decodeHexHeader decodes a hex-encoded 80-byte Bitcoin block header, used
// by config.go's custom start height bootstrap.
func decodeHexHeader(s string) (*wire.BlockHeader, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex header: %w", err)
	}
	return wire.NewBlockHeaderFromBytes(raw)
}
