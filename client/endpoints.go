package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// BroadcastTx broadcasts rawTx on the network and returns its txid. Unless
// skipSlpCheck is set, Chronik rejects txs that burn tokens.
func (c *Client) BroadcastTx(ctx context.Context, rawTx []byte, skipSlpCheck bool) (string, error) {
	resp, err := c.post(ctx, "/broadcast-tx", "BroadcastTxRequest", map[string]interface{}{
		"raw_tx":         rawTx,
		"skip_slp_check": skipSlpCheck,
	}, "BroadcastTxResponse")
	if err != nil {
		return "", err
	}
	return toHexRev(getBytes(resp, "txid")), nil
}

// BroadcastTxs broadcasts rawTxs only if all of them are valid.
func (c *Client) BroadcastTxs(ctx context.Context, rawTxs [][]byte, skipSlpCheck bool) ([]string, error) {
	raws := make([]interface{}, len(rawTxs))
	for i, rawTx := range rawTxs {
		raws[i] = rawTx
	}
	resp, err := c.post(ctx, "/broadcast-txs", "BroadcastTxsRequest", map[string]interface{}{
		"raw_txs":        raws,
		"skip_slp_check": skipSlpCheck,
	}, "BroadcastTxsResponse")
	if err != nil {
		return nil, err
	}
	list, _ := resp["txids"].([]interface{})
	txids := make([]string, 0, len(list))
	for _, txid := range list {
		b, _ := txid.([]byte)
		txids = append(txids, toHexRev(b))
	}
	return txids, nil
}

// ValidateUtxos reports the state of each outpoint, in request order.
func (c *Client) ValidateUtxos(ctx context.Context, outpoints []OutPoint) ([]UtxoState, error) {
	list := make([]interface{}, len(outpoints))
	for i, outpoint := range outpoints {
		if err := validateHash(outpoint.Txid); err != nil {
			return nil, errors.Wrapf(err, "outpoint %d", i)
		}
		txid, _ := chainhash.NewHashFromStr(outpoint.Txid)
		list[i] = map[string]interface{}{
			"txid":    txid[:],
			"out_idx": outpoint.OutIdx,
		}
	}
	resp, err := c.post(ctx, "/validate-utxos", "ValidateUtxoRequest", map[string]interface{}{
		"outpoints": list,
	}, "ValidateUtxoResponse")
	if err != nil {
		return nil, err
	}
	states := getMessages(resp, "utxo_states")
	result := make([]UtxoState, 0, len(states))
	for _, state := range states {
		result = append(result, convertUtxoState(state))
	}
	return result, nil
}

// BlockchainInfo fetches the current tip.
func (c *Client) BlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	resp, err := c.get(ctx, "/blockchain-info", "/blockchain-info", "BlockchainInfo")
	if err != nil {
		return nil, err
	}
	return convertBlockchainInfo(resp), nil
}

// Block fetches a block by hash or height.
func (c *Client) Block(ctx context.Context, hashOrHeight string) (*Block, error) {
	if _, err := strconv.ParseInt(hashOrHeight, 10, 32); err != nil {
		if err := validateHash(hashOrHeight); err != nil {
			return nil, errors.Wrapf(err, "block %q", hashOrHeight)
		}
	}
	resp, err := c.get(ctx, "/block/{hash_or_height}", "/block/"+hashOrHeight, "Block")
	if err != nil {
		return nil, err
	}
	return convertBlock(resp)
}

// BlockByHeight fetches the block at height.
func (c *Client) BlockByHeight(ctx context.Context, height int32) (*Block, error) {
	return c.Block(ctx, strconv.FormatInt(int64(height), 10))
}

// Blocks fetches the block infos of the inclusive range [startHeight, endHeight].
func (c *Client) Blocks(ctx context.Context, startHeight, endHeight int32) ([]BlockInfo, error) {
	if startHeight > endHeight {
		return nil, errors.Wrapf(ErrInvalidArgument, "start height %d above end height %d", startHeight, endHeight)
	}
	path := fmt.Sprintf("/blocks/%d/%d", startHeight, endHeight)
	resp, err := c.get(ctx, "/blocks/{start}/{end}", path, "Blocks")
	if err != nil {
		return nil, err
	}
	infos := getMessages(resp, "blocks")
	blocks := make([]BlockInfo, 0, len(infos))
	for _, info := range infos {
		blocks = append(blocks, convertBlockInfo(info))
	}
	return blocks, nil
}

// Tx fetches a tx by txid.
func (c *Client) Tx(ctx context.Context, txid string) (*Tx, error) {
	if err := validateHash(txid); err != nil {
		return nil, errors.Wrapf(err, "txid %q", txid)
	}
	resp, err := c.get(ctx, "/tx/{txid}", "/tx/"+txid, "Tx")
	if err != nil {
		return nil, err
	}
	return convertTx(resp)
}

// RawTx fetches the serialized tx. The body is the tx itself, not a
// protobuf message.
func (c *Client) RawTx(ctx context.Context, txid string) ([]byte, error) {
	if err := validateHash(txid); err != nil {
		return nil, errors.Wrapf(err, "txid %q", txid)
	}
	return c.do(ctx, http.MethodGet, "/raw-tx/{txid}", "/raw-tx/"+txid, nil)
}

// TokenInfo fetches the genesis info of a token.
func (c *Client) TokenInfo(ctx context.Context, tokenID string) (*TokenInfo, error) {
	if err := validateHash(tokenID); err != nil {
		return nil, errors.Wrapf(err, "token id %q", tokenID)
	}
	resp, err := c.get(ctx, "/token-info/{token_id}", "/token-info/"+tokenID, "TokenInfo")
	if err != nil {
		return nil, err
	}
	return convertTokenInfo(resp), nil
}

func validateHash(s string) error {
	if len(s) != 2*chainhash.HashSize {
		return errors.Wrapf(ErrInvalidArgument, "expected %d hex characters, got %d", 2*chainhash.HashSize, len(s))
	}
	if _, err := chainhash.NewHashFromStr(s); err != nil {
		return errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return nil
}
