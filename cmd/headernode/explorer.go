// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/wire"
)

// explorerTimeout bounds the custom start height bootstrap's HTTPS lookup;
// failure anywhere in the round trip leaves START_MARKER unwritten and
// aborts open (spec.md §4.4).
const explorerTimeout = 15 * time.Second

// explorerBaseURL returns the block-explorer API root for params, or
// ErrUnsupportedExplorer if the network has none. spec.md §6: "Acceptable
// networks for this path: mainnet, testnet. On regtest/simnet, only
// raw-header start tips are accepted."
func explorerBaseURL(params *chaincfg.Params) (string, error) {
	switch params.Net {
	case chaincfg.MainNetParams.Net:
		return "https://blockstream.info/api", nil
	case chaincfg.TestNet3Params.Net:
		return "https://blockstream.info/testnet/api", nil
	default:
		return "", errs.New(errs.Configuration, errs.ErrUnsupportedExplorer)
	}
}

// explorerClient resolves the raw headers at s-1 and s, plus the cumulative
// chainwork at s, from a block-explorer HTTP API. It is the HTTPS
// counterpart to --starttip/--startprevheader/--startchainwork for an
// operator who only knows a start height.
type explorerClient struct {
	base string
	hc   *http.Client
}

func newExplorerClient(params *chaincfg.Params) (*explorerClient, error) {
	base, err := explorerBaseURL(params)
	if err != nil {
		return nil, err
	}
	return &explorerClient{base: base, hc: &http.Client{Timeout: explorerTimeout}}, nil
}

func (c *explorerClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, errs.ErrMissingStartHeaders, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, errs.ErrMissingStartHeaders, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Wrap(errs.Configuration, errs.ErrMissingStartHeaders,
			fmt.Errorf("explorer returned %s for %s", resp.Status, path))
	}
	return io.ReadAll(resp.Body)
}

// hashAtHeight resolves a block height to its hash.
func (c *explorerClient) hashAtHeight(ctx context.Context, height int32) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/block-height/%d", height))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// headerAtHash fetches the raw 80-byte header, hex-encoded, at hash.
func (c *explorerClient) headerAtHash(ctx context.Context, hash string) (*wire.BlockHeader, error) {
	body, err := c.get(ctx, fmt.Sprintf("/block/%s/header", hash))
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(string(body))
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, errs.ErrMissingStartHeaders, err)
	}
	return wire.NewBlockHeaderFromBytes(raw)
}

// blockSummary is the subset of a block-explorer's per-block JSON this
// client consumes.
type blockSummary struct {
	Chainwork string `json:"chainwork"`
}

// chainworkAtHash fetches the hex-encoded cumulative chainwork as of hash.
func (c *explorerClient) chainworkAtHash(ctx context.Context, hash string) (*big.Int, error) {
	body, err := c.get(ctx, fmt.Sprintf("/block/%s", hash))
	if err != nil {
		return nil, err
	}
	var summary blockSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, errs.Wrap(errs.Configuration, errs.ErrMissingStartHeaders, err)
	}
	work, ok := new(big.Int).SetString(summary.Chainwork, 16)
	if !ok {
		return nil, errs.New(errs.Configuration, errs.ErrMissingStartHeaders)
	}
	return work, nil
}

// resolveStartHeaders fetches the raw headers at height-1 and height, plus
// the cumulative chainwork at height, from a block explorer (spec.md §4.4:
// "the node issues a single HTTPS GET to a block-explorer API for the two
// headers at s-1 and s" — done here as a short handful of GETs rather than
// a single request, since no explorer exposes both headers and chainwork
// in one call).
func resolveStartHeaders(params *chaincfg.Params, height int32) (prevHeader, tipHeader *wire.BlockHeader, work *big.Int, err error) {
	client, err := newExplorerClient(params)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), explorerTimeout)
	defer cancel()

	prevHash, err := client.hashAtHeight(ctx, height-1)
	if err != nil {
		return nil, nil, nil, err
	}
	tipHash, err := client.hashAtHeight(ctx, height)
	if err != nil {
		return nil, nil, nil, err
	}
	prevHeader, err = client.headerAtHash(ctx, prevHash)
	if err != nil {
		return nil, nil, nil, err
	}
	tipHeader, err = client.headerAtHash(ctx, tipHash)
	if err != nil {
		return nil, nil, nil, err
	}
	work, err = client.chainworkAtHash(ctx, tipHash)
	if err != nil {
		return nil, nil, nil, err
	}
	return prevHeader, tipHeader, work, nil
}
