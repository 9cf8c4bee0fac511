package client

import (
	"context"
	"encoding/hex"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// ScriptType selects how a script payload is interpreted.
type ScriptType string

const (
	ScriptTypeOther          ScriptType = "other"
	ScriptTypeP2PK           ScriptType = "p2pk"
	ScriptTypeP2PKH          ScriptType = "p2pkh"
	ScriptTypeP2SH           ScriptType = "p2sh"
	ScriptTypeP2TRCommitment ScriptType = "p2tr-commitment"
	ScriptTypeP2TRState      ScriptType = "p2tr-state"
)

// ParseScriptType accepts the lowercase names used in Chronik urls.
func ParseScriptType(s string) (ScriptType, error) {
	switch t := ScriptType(s); t {
	case ScriptTypeOther, ScriptTypeP2PK, ScriptTypeP2PKH, ScriptTypeP2SH,
		ScriptTypeP2TRCommitment, ScriptTypeP2TRState:
		return t, nil
	}
	return "", errors.Wrapf(ErrInvalidArgument, "unknown script type %q", s)
}

// ScriptEndpoint fetches the history and UTXOs of one script.
type ScriptEndpoint struct {
	client      *Client
	scriptType  ScriptType
	payloadHex  string
	validateErr error
}

// Script returns the endpoint for a script. For p2pkh, payloadHex is the 20
// byte public key hash. Invalid arguments are reported by the fetch methods.
func (c *Client) Script(scriptType ScriptType, payloadHex string) *ScriptEndpoint {
	s := &ScriptEndpoint{client: c, scriptType: scriptType, payloadHex: payloadHex}
	if _, err := ParseScriptType(string(scriptType)); err != nil {
		s.validateErr = err
	} else if _, err := hex.DecodeString(payloadHex); err != nil {
		s.validateErr = errors.Wrapf(ErrInvalidArgument, "script payload %q is not hex", payloadHex)
	}
	return s
}

// HistoryOption sets a query parameter of a history request.
type HistoryOption func(url.Values)

func WithPage(page int) HistoryOption {
	return func(q url.Values) { q.Set("page", strconv.Itoa(page)) }
}

func WithPageSize(pageSize int) HistoryOption {
	return func(q url.Values) { q.Set("page_size", strconv.Itoa(pageSize)) }
}

// History fetches a page of the script's tx history, most recent first.
// Without options the server picks the first page and its default size.
func (s *ScriptEndpoint) History(ctx context.Context, opts ...HistoryOption) (*TxHistoryPage, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	q := url.Values{}
	for _, opt := range opts {
		opt(q)
	}
	path := s.basePath() + "/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.client.get(ctx, "/script/{type}/{payload}/history", path, "TxHistoryPage")
	if err != nil {
		return nil, err
	}
	txs := getMessages(resp, "txs")
	page := &TxHistoryPage{
		Txs:      make([]Tx, 0, len(txs)),
		NumPages: getUint32(resp, "num_pages"),
	}
	for i, tx := range txs {
		converted, err := convertTx(tx)
		if err != nil {
			return nil, errors.Wrapf(err, "tx %d", i)
		}
		page.Txs = append(page.Txs, *converted)
	}
	return page, nil
}

// Utxos fetches the current UTXO set of the script.
func (s *ScriptEndpoint) Utxos(ctx context.Context) (*ScriptUtxos, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	resp, err := s.client.get(ctx, "/script/{type}/{payload}/utxos", s.basePath()+"/utxos", "ScriptUtxos")
	if err != nil {
		return nil, err
	}
	utxos := getMessages(resp, "utxos")
	result := &ScriptUtxos{
		Script: toHex(getBytes(resp, "script")),
		Utxos:  make([]ScriptUtxo, 0, len(utxos)),
	}
	for i, utxo := range utxos {
		converted, err := convertUtxo(utxo)
		if err != nil {
			return nil, errors.Wrapf(err, "utxo %d", i)
		}
		result.Utxos = append(result.Utxos, converted)
	}
	return result, nil
}

func (s *ScriptEndpoint) basePath() string {
	return "/script/" + string(s.scriptType) + "/" + s.payloadHex
}
