// Package blockfrost implements the indexer-facing interfaces of the
// domain packages against a Blockfrost-compatible REST API.
package blockfrost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gabapcia/listingwatch/internal/addressbook"
	"github.com/gabapcia/listingwatch/internal/assetmeta"
	"github.com/gabapcia/listingwatch/internal/listingwatch"
	"github.com/gabapcia/listingwatch/internal/txscan"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrRequestFailed indicates a non-2xx response from the indexer (other
// than rate limiting, which surfaces as txscan.ErrRateLimited).
var ErrRequestFailed = errors.New("indexer request failed")

// projectIDHeader is the Blockfrost authentication header.
const projectIDHeader = "project_id"

// Client is the REST adapter for the indexing API. It implements the lister,
// UTXO fetcher, asset fetcher, and address resolver seams of the domain
// packages.
type Client struct {
	baseURL    string
	projectID  string
	httpClient *retryablehttp.Client
}

// Compile-time checks against every consumed interface.
var (
	_ txscan.TransactionLister    = (*Client)(nil)
	_ listingwatch.UTXOFetcher    = (*Client)(nil)
	_ assetmeta.AssetFetcher      = (*Client)(nil)
	_ addressbook.AddressResolver = (*Client)(nil)
)

// New creates a Blockfrost client on top of the given HTTP client.
//
// The transport must not retry rate-limited requests on its own: the
// scanner owns the 429 cooldown policy, so New overrides CheckRetry to pass
// 429 responses straight through while keeping the default policy for
// everything else.
func New(httpClient *retryablehttp.Client, baseURL, projectID string) *Client {
	httpClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return &Client{
		baseURL:    baseURL,
		projectID:  projectID,
		httpClient: httpClient,
	}
}

// get issues an authenticated GET against the indexer and decodes the JSON
// response into out. Rate limiting surfaces as txscan.ErrRateLimited; any
// other non-2xx status as ErrRequestFailed.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set(projectIDHeader, c.projectID)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", path, txscan.ErrRateLimited)
	case res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("%w: %s returned status %d", ErrRequestFailed, path, res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(out)
}

// addressTransaction mirrors one entry of the address transaction list.
type addressTransaction struct {
	TxHash    string `json:"tx_hash"`
	BlockTime int64  `json:"block_time"`
}

// AddressTransactions implements txscan.TransactionLister, requesting the
// given page of the address's history in newest-first order.
func (c *Client) AddressTransactions(ctx context.Context, address string, page, count int) ([]txscan.Transaction, error) {
	query := url.Values{
		"page":  []string{strconv.Itoa(page)},
		"count": []string{strconv.Itoa(count)},
		"order": []string{"desc"},
	}

	var data []addressTransaction
	if err := c.get(ctx, "/addresses/"+address+"/transactions", query, &data); err != nil {
		return nil, err
	}

	txs := make([]txscan.Transaction, len(data))
	for i, tx := range data {
		txs[i] = txscan.Transaction{
			Hash:      tx.TxHash,
			BlockTime: tx.BlockTime,
		}
	}
	return txs, nil
}

// txAmount mirrors a single asset amount of a transaction output.
type txAmount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// txOutput mirrors a transaction output with its destination address.
type txOutput struct {
	Address string     `json:"address"`
	Amount  []txAmount `json:"amount"`
}

// transactionUTXOs mirrors the transaction UTXO endpoint response. Inputs
// are present on the wire but not needed for deposit detection.
type transactionUTXOs struct {
	Hash    string     `json:"hash"`
	Outputs []txOutput `json:"outputs"`
}

// TransactionUTXOs implements listingwatch.UTXOFetcher.
func (c *Client) TransactionUTXOs(ctx context.Context, txHash string) (listingwatch.TransactionUTXOs, error) {
	var data transactionUTXOs
	if err := c.get(ctx, "/txs/"+txHash+"/utxos", nil, &data); err != nil {
		return listingwatch.TransactionUTXOs{}, err
	}

	outputs := make([]listingwatch.TxOutput, len(data.Outputs))
	for i, out := range data.Outputs {
		amounts := make([]listingwatch.TxAmount, len(out.Amount))
		for j, amount := range out.Amount {
			amounts[j] = listingwatch.TxAmount{
				Unit:     amount.Unit,
				Quantity: amount.Quantity,
			}
		}

		outputs[i] = listingwatch.TxOutput{
			Address: out.Address,
			Amounts: amounts,
		}
	}

	return listingwatch.TransactionUTXOs{
		Hash:    data.Hash,
		Outputs: outputs,
	}, nil
}

// transactionInfo mirrors the subset of the transaction detail endpoint the
// detector needs.
type transactionInfo struct {
	BlockTime int64 `json:"block_time"`
}

// TransactionBlockTime implements listingwatch.UTXOFetcher.
func (c *Client) TransactionBlockTime(ctx context.Context, txHash string) (int64, error) {
	var data transactionInfo
	if err := c.get(ctx, "/txs/"+txHash, nil, &data); err != nil {
		return 0, err
	}

	return data.BlockTime, nil
}

// assetRecord mirrors the asset detail endpoint response.
type assetRecord struct {
	Asset           string         `json:"asset"`
	AssetName       string         `json:"asset_name"`
	Fingerprint     string         `json:"fingerprint"`
	OnchainMetadata map[string]any `json:"onchain_metadata"`
}

// Asset implements assetmeta.AssetFetcher.
func (c *Client) Asset(ctx context.Context, unit string) (assetmeta.Asset, error) {
	var data assetRecord
	if err := c.get(ctx, "/assets/"+unit, nil, &data); err != nil {
		return assetmeta.Asset{}, err
	}

	return assetmeta.Asset{
		Unit:            unit,
		AssetNameHex:    data.AssetName,
		Fingerprint:     data.Fingerprint,
		OnchainMetadata: data.OnchainMetadata,
	}, nil
}

// accountAddress mirrors one entry of the stake account address list.
type accountAddress struct {
	Address string `json:"address"`
}

// StakeAddresses implements addressbook.AddressResolver.
func (c *Client) StakeAddresses(ctx context.Context, stakeKey string) ([]string, error) {
	var data []accountAddress
	if err := c.get(ctx, "/accounts/"+stakeKey+"/addresses", nil, &data); err != nil {
		return nil, err
	}

	addresses := make([]string, len(data))
	for i, entry := range data {
		addresses[i] = entry.Address
	}
	return addresses, nil
}
