package client

import (
	"github.com/shopspring/decimal"
)

// Hashes (txids, block hashes, SLPv2 token ids) are rendered as byte-reversed
// hex, scripts and SLP token ids as plain hex.

// BlockchainInfo is the current state of the blockchain.
type BlockchainInfo struct {
	TipHash   string `json:"tipHash"`
	TipHeight int32  `json:"tipHeight"`
}

// Tx is a transaction on the blockchain or in the mempool.
type Tx struct {
	Txid     string     `json:"txid"`
	Version  int32      `json:"version"`
	Inputs   []TxInput  `json:"inputs"`
	Outputs  []TxOutput `json:"outputs"`
	LockTime uint32     `json:"lockTime"`
	// Block is nil while the tx is unconfirmed.
	Block *BlockMetadata `json:"block,omitempty"`
	// TimeFirstSeen is 0 when unknown.
	TimeFirstSeen int64          `json:"timeFirstSeen"`
	Size          uint32         `json:"size"`
	IsCoinbase    bool           `json:"isCoinbase"`
	Slpv1Data     *Slpv1TxData   `json:"slpv1Data,omitempty"`
	Slpv2Sections []Slpv2Section `json:"slpv2Sections"`
	SlpBurns      []SlpBurn      `json:"slpBurns"`
	SlpErrors     []string       `json:"slpErrors"`
}

type TxInput struct {
	PrevOut     OutPoint `json:"prevOut"`
	InputScript string   `json:"inputScript"`
	// OutputScript is empty when the indexer does not know the spent output.
	OutputScript string    `json:"outputScript,omitempty"`
	Value        int64     `json:"value"`
	SequenceNo   uint32    `json:"sequenceNo"`
	Slp          *SlpToken `json:"slp,omitempty"`
}

type TxOutput struct {
	Value        int64     `json:"value"`
	OutputScript string    `json:"outputScript"`
	Slp          *SlpToken `json:"slp,omitempty"`
	SpentBy      *SpentBy  `json:"spentBy,omitempty"`
}

type OutPoint struct {
	Txid   string `json:"txid"`
	OutIdx uint32 `json:"outIdx"`
}

type SpentBy struct {
	Txid     string `json:"txid"`
	InputIdx uint32 `json:"inputIdx"`
}

type BlockMetadata struct {
	Height    int32  `json:"height"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"`
	IsFinal   bool   `json:"isFinal"`
}

type BlockInfo struct {
	Hash                  string `json:"hash"`
	PrevHash              string `json:"prevHash"`
	Height                int32  `json:"height"`
	NBits                 uint32 `json:"nBits"`
	Timestamp             int64  `json:"timestamp"`
	BlockSize             uint64 `json:"blockSize"`
	NumTxs                uint64 `json:"numTxs"`
	NumInputs             uint64 `json:"numInputs"`
	NumOutputs            uint64 `json:"numOutputs"`
	SumInputSats          int64  `json:"sumInputSats"`
	SumCoinbaseOutputSats int64  `json:"sumCoinbaseOutputSats"`
	SumNormalOutputSats   int64  `json:"sumNormalOutputSats"`
	SumBurnedSats         int64  `json:"sumBurnedSats"`
	IsFinal               bool   `json:"isFinal"`
}

type Block struct {
	BlockInfo BlockInfo `json:"blockInfo"`
}

type ScriptUtxos struct {
	Script string       `json:"script"`
	Utxos  []ScriptUtxo `json:"utxos"`
}

type ScriptUtxo struct {
	Outpoint OutPoint `json:"outpoint"`
	// BlockHeight is -1 for mempool UTXOs.
	BlockHeight int32     `json:"blockHeight"`
	IsCoinbase  bool      `json:"isCoinbase"`
	Value       int64     `json:"value"`
	IsFinal     bool      `json:"isFinal"`
	Slp         *SlpToken `json:"slp,omitempty"`
}

type UtxoStateVariant string

const (
	UtxoStateUnspent      UtxoStateVariant = "UNSPENT"
	UtxoStateSpent        UtxoStateVariant = "SPENT"
	UtxoStateNoSuchTx     UtxoStateVariant = "NO_SUCH_TX"
	UtxoStateNoSuchOutput UtxoStateVariant = "NO_SUCH_OUTPUT"
	UtxoStateUnknown      UtxoStateVariant = "UNKNOWN"
)

// UtxoState is the state of one outpoint passed to ValidateUtxos. Height is
// -1 when the tx is unconfirmed or unknown.
type UtxoState struct {
	Height      int32            `json:"height"`
	IsConfirmed bool             `json:"isConfirmed"`
	State       UtxoStateVariant `json:"state"`
}

type TxHistoryPage struct {
	Txs      []Tx   `json:"txs"`
	NumPages uint32 `json:"numPages"`
}

type TokenProtocol string

const (
	TokenProtocolSlp     TokenProtocol = "SLP"
	TokenProtocolSlpv2   TokenProtocol = "SLPV2"
	TokenProtocolUnknown TokenProtocol = "UNKNOWN"
)

type SlpTxType string

const (
	SlpTxTypeGenesis SlpTxType = "GENESIS"
	SlpTxTypeSend    SlpTxType = "SEND"
	SlpTxTypeMint    SlpTxType = "MINT"
	SlpTxTypeBurn    SlpTxType = "BURN"
	SlpTxTypeUnknown SlpTxType = "UNKNOWN"
)

type Slpv1TokenType string

const (
	Slpv1TokenTypeFungible  Slpv1TokenType = "FUNGIBLE"
	Slpv1TokenTypeNft1Group Slpv1TokenType = "NFT1_GROUP"
	Slpv1TokenTypeNft1Child Slpv1TokenType = "NFT1_CHILD"
	Slpv1TokenTypeUnknown   Slpv1TokenType = "UNKNOWN"
)

type Slpv2TokenType string

const (
	Slpv2TokenTypeStandard Slpv2TokenType = "STANDARD"
	Slpv2TokenTypeUnknown  Slpv2TokenType = "UNKNOWN"
)

type Slpv1TxData struct {
	TokenType    Slpv1TokenType `json:"tokenType"`
	TxType       SlpTxType      `json:"txType"`
	TokenId      string         `json:"tokenId"`
	GroupTokenId string         `json:"groupTokenId,omitempty"`
}

type Slpv2Section struct {
	TokenId     string         `json:"tokenId"`
	TokenType   Slpv2TokenType `json:"tokenType"`
	SectionType SlpTxType      `json:"sectionType"`
}

type SlpBurn struct {
	TokenId        string         `json:"tokenId"`
	TokenProtocol  TokenProtocol  `json:"tokenProtocol"`
	Slpv1TokenType Slpv1TokenType `json:"slpv1TokenType,omitempty"`
	Slpv2TokenType Slpv2TokenType `json:"slpv2TokenType,omitempty"`
	BurnError      string         `json:"burnError"`
	// ActualBurn is the SLPv1 or SLPv2 burn, depending on the protocol.
	ActualBurn           decimal.Decimal `json:"actualBurn"`
	Slpv2IntentionalBurn decimal.Decimal `json:"slpv2IntentionalBurn"`
	BurnMintBatons       bool            `json:"burnMintBatons"`
}

// SlpToken is the token amount (in base units) or mint baton of an input or
// output.
type SlpToken struct {
	TokenId         string          `json:"tokenId"`
	TokenProtocol   TokenProtocol   `json:"tokenProtocol"`
	Slpv1TokenType  Slpv1TokenType  `json:"slpv1TokenType,omitempty"`
	Slpv2TokenType  Slpv2TokenType  `json:"slpv2TokenType,omitempty"`
	Slpv2SectionIdx uint32          `json:"slpv2SectionIdx"`
	IsBurned        bool            `json:"isBurned"`
	Amount          decimal.Decimal `json:"amount"`
	IsMintBaton     bool            `json:"isMintBaton"`
}

type TokenInfo struct {
	TokenId       string          `json:"tokenId"`
	TokenProtocol TokenProtocol   `json:"tokenProtocol"`
	Slpv1         *Slpv1TokenInfo `json:"slpv1,omitempty"`
	Slpv2         *Slpv2TokenInfo `json:"slpv2,omitempty"`
	Block         *BlockMetadata  `json:"block,omitempty"`
	TimeFirstSeen int64           `json:"timeFirstSeen"`
}

type Slpv1TokenInfo struct {
	TokenType   Slpv1TokenType   `json:"tokenType"`
	GenesisInfo Slpv1GenesisInfo `json:"genesisInfo"`
}

type Slpv2TokenInfo struct {
	TokenType   Slpv2TokenType   `json:"tokenType"`
	GenesisInfo Slpv2GenesisInfo `json:"genesisInfo"`
}

type Slpv1GenesisInfo struct {
	TokenTicker       string `json:"tokenTicker"`
	TokenName         string `json:"tokenName"`
	TokenDocumentUrl  string `json:"tokenDocumentUrl"`
	TokenDocumentHash string `json:"tokenDocumentHash"`
	Decimals          uint32 `json:"decimals"`
}

type Slpv2GenesisInfo struct {
	TokenTicker string `json:"tokenTicker"`
	TokenName   string `json:"tokenName"`
	Url         string `json:"url"`
	Data        []byte `json:"data"`
	AuthPubkey  string `json:"authPubkey"`
	Decimals    uint32 `json:"decimals"`
}

// WsMsgType is the kind of a websocket message.
type WsMsgType string

const (
	WsMsgTypeError WsMsgType = "Error"
	WsMsgTypeTx    WsMsgType = "MsgTx"
	WsMsgTypeBlock WsMsgType = "MsgBlock"
)

// WsMsg is a message received on the websocket. Exactly one of Error, Tx and
// Block is set, matching Type.
type WsMsg struct {
	Type  WsMsgType `json:"type"`
	Error *WsError  `json:"error,omitempty"`
	Tx    *MsgTx    `json:"tx,omitempty"`
	Block *MsgBlock `json:"block,omitempty"`
}

// WsError reports an error, e.g. a malformed subscription.
type WsError struct {
	ErrorCode   string `json:"errorCode"`
	Msg         string `json:"msg"`
	IsUserError bool   `json:"isUserError"`
}

type TxMsgType string

const (
	TxMsgAddedToMempool     TxMsgType = "AddedToMempool"
	TxMsgRemovedFromMempool TxMsgType = "RemovedFromMempool"
	TxMsgConfirmed          TxMsgType = "Confirmed"
	TxMsgFinalized          TxMsgType = "Finalized"
)

type MsgTx struct {
	TxMsgType TxMsgType `json:"txMsgType"`
	Txid      string    `json:"txid"`
}

type BlockMsgType string

const (
	BlockMsgConnected    BlockMsgType = "Connected"
	BlockMsgDisconnected BlockMsgType = "Disconnected"
	BlockMsgFinalized    BlockMsgType = "Finalized"
)

// MsgBlock is sent for every block, regardless of subscriptions.
type MsgBlock struct {
	BlockMsgType BlockMsgType `json:"blockMsgType"`
	BlockHash    string       `json:"blockHash"`
	BlockHeight  int32        `json:"blockHeight"`
}
