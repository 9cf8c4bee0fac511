package client

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/givelotus/chronik-go/wire"
)

// Accessors for decoded messages. The codec fills every schema field, so a
// missing key only happens for a message of the wrong type and reads as
// the zero value.

func getString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func getBool(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getBytes(m map[string]interface{}, key string) []byte {
	b, _ := m[key].([]byte)
	return b
}

func getInt32(m map[string]interface{}, key string) int32 {
	v, _ := m[key].(int32)
	return v
}

func getUint32(m map[string]interface{}, key string) uint32 {
	v, _ := m[key].(uint32)
	return v
}

func getInt64(m map[string]interface{}, key string) int64 {
	v, _ := m[key].(int64)
	return v
}

func getUint64(m map[string]interface{}, key string) uint64 {
	v, _ := m[key].(uint64)
	return v
}

func getEnum(m map[string]interface{}, key string) wire.EnumValue {
	v, _ := m[key].(wire.EnumValue)
	return v
}

// getMessage returns nil when the sub-message is absent.
func getMessage(m map[string]interface{}, key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	return v
}

func getMessages(m map[string]interface{}, key string) []map[string]interface{} {
	list, _ := m[key].([]interface{})
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if msg, ok := item.(map[string]interface{}); ok {
			out = append(out, msg)
		}
	}
	return out
}

func toHex(b []byte) string {
	return hex.EncodeToString(b)
}

// toHexRev renders a hash in the byte-reversed order block explorers use.
func toHexRev(b []byte) string {
	if len(b) == chainhash.HashSize {
		h, _ := chainhash.NewHash(b)
		return h.String()
	}
	rev := make([]byte, len(b))
	for i := range b {
		rev[len(b)-1-i] = b[i]
	}
	return hex.EncodeToString(rev)
}

// parseAmount reads a token amount in base units. Chronik sends amounts as
// decimal strings since SLPv2 amounts exceed 64 bits.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidProtobuf, "invalid token amount %q", s)
	}
	return d, nil
}

// FormatTokenAmount shifts a base unit amount by the token's decimals, e.g.
// 12345 with 2 decimals is "123.45".
func FormatTokenAmount(amount decimal.Decimal, decimals uint32) string {
	return amount.Shift(-int32(decimals)).StringFixed(int32(decimals))
}

func convertTokenProtocol(ev wire.EnumValue) TokenProtocol {
	switch ev.Name {
	case "TOKEN_PROTOCOL_SLPV1":
		return TokenProtocolSlp
	case "TOKEN_PROTOCOL_SLPV2":
		return TokenProtocolSlpv2
	}
	return TokenProtocolUnknown
}

func convertSlpv1TokenType(ev wire.EnumValue) Slpv1TokenType {
	switch ev.Name {
	case "SLPV1_TOKEN_TYPE_FUNGIBLE":
		return Slpv1TokenTypeFungible
	case "SLPV1_TOKEN_TYPE_NFT1_GROUP":
		return Slpv1TokenTypeNft1Group
	case "SLPV1_TOKEN_TYPE_NFT1_CHILD":
		return Slpv1TokenTypeNft1Child
	}
	return Slpv1TokenTypeUnknown
}

func convertSlpv2TokenType(ev wire.EnumValue) Slpv2TokenType {
	if ev.Name == "SLPV2_TOKEN_TYPE_STANDARD" {
		return Slpv2TokenTypeStandard
	}
	return Slpv2TokenTypeUnknown
}

func convertSlpTxType(ev wire.EnumValue) SlpTxType {
	switch ev.Name {
	case "GENESIS":
		return SlpTxTypeGenesis
	case "SEND":
		return SlpTxTypeSend
	case "MINT":
		return SlpTxTypeMint
	case "BURN":
		return SlpTxTypeBurn
	}
	return SlpTxTypeUnknown
}

func convertUtxoStateVariant(ev wire.EnumValue) UtxoStateVariant {
	switch ev.Name {
	case "UNSPENT":
		return UtxoStateUnspent
	case "SPENT":
		return UtxoStateSpent
	case "NO_SUCH_TX":
		return UtxoStateNoSuchTx
	case "NO_SUCH_OUTPUT":
		return UtxoStateNoSuchOutput
	}
	return UtxoStateUnknown
}

func convertUtxoState(m map[string]interface{}) UtxoState {
	return UtxoState{
		Height:      getInt32(m, "height"),
		IsConfirmed: getBool(m, "is_confirmed"),
		State:       convertUtxoStateVariant(getEnum(m, "state")),
	}
}

// tokenID renders SLPv1 token ids as plain hex and every other protocol's
// as a reversed hash.
func tokenID(protocol TokenProtocol, id []byte) string {
	if protocol == TokenProtocolSlp {
		return toHex(id)
	}
	return toHexRev(id)
}

func convertBlockchainInfo(m map[string]interface{}) *BlockchainInfo {
	return &BlockchainInfo{
		TipHash:   toHexRev(getBytes(m, "tip_hash")),
		TipHeight: getInt32(m, "tip_height"),
	}
}

func convertBlock(m map[string]interface{}) (*Block, error) {
	info := getMessage(m, "block_info")
	if info == nil {
		return nil, errors.Wrap(ErrInvalidProtobuf, "block has no block_info")
	}
	return &Block{BlockInfo: convertBlockInfo(info)}, nil
}

func convertBlockInfo(m map[string]interface{}) BlockInfo {
	return BlockInfo{
		Hash:                  toHexRev(getBytes(m, "hash")),
		PrevHash:              toHexRev(getBytes(m, "prev_hash")),
		Height:                getInt32(m, "height"),
		NBits:                 getUint32(m, "n_bits"),
		Timestamp:             getInt64(m, "timestamp"),
		BlockSize:             getUint64(m, "block_size"),
		NumTxs:                getUint64(m, "num_txs"),
		NumInputs:             getUint64(m, "num_inputs"),
		NumOutputs:            getUint64(m, "num_outputs"),
		SumInputSats:          getInt64(m, "sum_input_sats"),
		SumCoinbaseOutputSats: getInt64(m, "sum_coinbase_output_sats"),
		SumNormalOutputSats:   getInt64(m, "sum_normal_output_sats"),
		SumBurnedSats:         getInt64(m, "sum_burned_sats"),
		IsFinal:               getBool(m, "is_final"),
	}
}

func convertBlockMeta(m map[string]interface{}) *BlockMetadata {
	if m == nil {
		return nil
	}
	return &BlockMetadata{
		Height:    getInt32(m, "height"),
		Hash:      toHexRev(getBytes(m, "hash")),
		Timestamp: getInt64(m, "timestamp"),
		IsFinal:   getBool(m, "is_final"),
	}
}

func convertTx(m map[string]interface{}) (*Tx, error) {
	tx := &Tx{
		Txid:          toHexRev(getBytes(m, "txid")),
		Version:       getInt32(m, "version"),
		LockTime:      getUint32(m, "lock_time"),
		Block:         convertBlockMeta(getMessage(m, "block")),
		TimeFirstSeen: getInt64(m, "time_first_seen"),
		Size:          getUint32(m, "size"),
		IsCoinbase:    getBool(m, "is_coinbase"),
		Slpv2Sections: []Slpv2Section{},
		SlpBurns:      []SlpBurn{},
		SlpErrors:     []string{},
	}

	inputs := getMessages(m, "inputs")
	tx.Inputs = make([]TxInput, 0, len(inputs))
	for i, input := range inputs {
		converted, err := convertTxInput(input)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		tx.Inputs = append(tx.Inputs, converted)
	}

	outputs := getMessages(m, "outputs")
	tx.Outputs = make([]TxOutput, 0, len(outputs))
	for i, output := range outputs {
		converted, err := convertTxOutput(output)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		tx.Outputs = append(tx.Outputs, converted)
	}

	if data := getMessage(m, "slpv1_data"); data != nil {
		tx.Slpv1Data = convertSlpv1TxData(data)
	}
	for _, section := range getMessages(m, "slpv2_sections") {
		tx.Slpv2Sections = append(tx.Slpv2Sections, Slpv2Section{
			TokenId:     toHexRev(getBytes(section, "token_id")),
			TokenType:   convertSlpv2TokenType(getEnum(section, "token_type")),
			SectionType: convertSlpTxType(getEnum(section, "section_type")),
		})
	}
	for _, burn := range getMessages(m, "slp_burns") {
		converted, err := convertSlpBurn(burn)
		if err != nil {
			return nil, err
		}
		tx.SlpBurns = append(tx.SlpBurns, converted)
	}
	if list, ok := m["slp_errors"].([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				tx.SlpErrors = append(tx.SlpErrors, s)
			}
		}
	}

	return tx, nil
}

func convertTxInput(m map[string]interface{}) (TxInput, error) {
	prevOut := getMessage(m, "prev_out")
	if prevOut == nil {
		return TxInput{}, errors.Wrap(ErrInvalidProtobuf, "no prev_out")
	}
	slp, err := convertSlpToken(getMessage(m, "slp"))
	if err != nil {
		return TxInput{}, err
	}
	return TxInput{
		PrevOut:      convertOutPoint(prevOut),
		InputScript:  toHex(getBytes(m, "input_script")),
		OutputScript: toHex(getBytes(m, "output_script")),
		Value:        getInt64(m, "value"),
		SequenceNo:   getUint32(m, "sequence_no"),
		Slp:          slp,
	}, nil
}

func convertTxOutput(m map[string]interface{}) (TxOutput, error) {
	slp, err := convertSlpToken(getMessage(m, "slp"))
	if err != nil {
		return TxOutput{}, err
	}
	out := TxOutput{
		Value:        getInt64(m, "value"),
		OutputScript: toHex(getBytes(m, "output_script")),
		Slp:          slp,
	}
	if spentBy := getMessage(m, "spent_by"); spentBy != nil {
		out.SpentBy = &SpentBy{
			Txid:     toHexRev(getBytes(spentBy, "txid")),
			InputIdx: getUint32(spentBy, "input_idx"),
		}
	}
	return out, nil
}

func convertOutPoint(m map[string]interface{}) OutPoint {
	return OutPoint{
		Txid:   toHexRev(getBytes(m, "txid")),
		OutIdx: getUint32(m, "out_idx"),
	}
}

func convertSlpv1TxData(m map[string]interface{}) *Slpv1TxData {
	data := &Slpv1TxData{
		TokenType: convertSlpv1TokenType(getEnum(m, "token_type")),
		TxType:    convertSlpTxType(getEnum(m, "tx_type")),
		TokenId:   toHex(getBytes(m, "token_id")),
	}
	if group := getBytes(m, "group_token_id"); len(group) == chainhash.HashSize {
		data.GroupTokenId = toHex(group)
	}
	return data
}

func convertSlpBurn(m map[string]interface{}) (SlpBurn, error) {
	protocol := convertTokenProtocol(getEnum(m, "token_protocol"))
	burn := SlpBurn{
		TokenId:        tokenID(protocol, getBytes(m, "token_id")),
		TokenProtocol:  protocol,
		BurnError:      getString(m, "burn_error"),
		BurnMintBatons: getBool(m, "burn_mint_batons"),
	}
	actualBurnKey := "slpv2_actual_burn"
	switch protocol {
	case TokenProtocolSlp:
		burn.Slpv1TokenType = convertSlpv1TokenType(getEnum(m, "slpv1_token_type"))
		actualBurnKey = "slpv1_actual_burn"
	case TokenProtocolSlpv2:
		burn.Slpv2TokenType = convertSlpv2TokenType(getEnum(m, "slpv2_token_type"))
	}

	var err error
	if burn.ActualBurn, err = parseAmount(getString(m, actualBurnKey)); err != nil {
		return SlpBurn{}, err
	}
	if burn.Slpv2IntentionalBurn, err = parseAmount(getString(m, "slpv2_intentional_burn")); err != nil {
		return SlpBurn{}, err
	}
	return burn, nil
}

// convertSlpToken returns nil for an absent token.
func convertSlpToken(m map[string]interface{}) (*SlpToken, error) {
	if m == nil {
		return nil, nil
	}
	amount, err := parseAmount(getString(m, "amount"))
	if err != nil {
		return nil, err
	}
	protocol := convertTokenProtocol(getEnum(m, "token_protocol"))
	token := &SlpToken{
		TokenId:         tokenID(protocol, getBytes(m, "token_id")),
		TokenProtocol:   protocol,
		Slpv2SectionIdx: getUint32(m, "slpv2_section_idx"),
		IsBurned:        getBool(m, "is_burned"),
		Amount:          amount,
		IsMintBaton:     getBool(m, "is_mint_baton"),
	}
	switch protocol {
	case TokenProtocolSlp:
		token.Slpv1TokenType = convertSlpv1TokenType(getEnum(m, "slpv1_token_type"))
	case TokenProtocolSlpv2:
		token.Slpv2TokenType = convertSlpv2TokenType(getEnum(m, "slpv2_token_type"))
	}
	return token, nil
}

func convertUtxo(m map[string]interface{}) (ScriptUtxo, error) {
	outpoint := getMessage(m, "outpoint")
	if outpoint == nil {
		return ScriptUtxo{}, errors.Wrap(ErrInvalidProtobuf, "utxo has no outpoint")
	}
	slp, err := convertSlpToken(getMessage(m, "slp"))
	if err != nil {
		return ScriptUtxo{}, err
	}
	return ScriptUtxo{
		Outpoint:    convertOutPoint(outpoint),
		BlockHeight: getInt32(m, "block_height"),
		IsCoinbase:  getBool(m, "is_coinbase"),
		Value:       getInt64(m, "value"),
		IsFinal:     getBool(m, "is_final"),
		Slp:         slp,
	}, nil
}

func convertTokenInfo(m map[string]interface{}) *TokenInfo {
	protocol := convertTokenProtocol(getEnum(m, "token_protocol"))
	info := &TokenInfo{
		TokenId:       tokenID(protocol, getBytes(m, "token_id")),
		TokenProtocol: protocol,
		Block:         convertBlockMeta(getMessage(m, "block")),
		TimeFirstSeen: getInt64(m, "time_first_seen"),
	}
	switch protocol {
	case TokenProtocolSlp:
		genesis := getMessage(m, "slpv1_genesis_info")
		info.Slpv1 = &Slpv1TokenInfo{
			TokenType: convertSlpv1TokenType(getEnum(m, "slpv1_token_type")),
			GenesisInfo: Slpv1GenesisInfo{
				TokenTicker:       string(getBytes(genesis, "token_ticker")),
				TokenName:         string(getBytes(genesis, "token_name")),
				TokenDocumentUrl:  string(getBytes(genesis, "token_document_url")),
				TokenDocumentHash: toHex(getBytes(genesis, "token_document_hash")),
				Decimals:          getUint32(genesis, "decimals"),
			},
		}
	case TokenProtocolSlpv2:
		genesis := getMessage(m, "slpv2_genesis_info")
		data := getBytes(genesis, "data")
		if data == nil {
			data = []byte{}
		}
		info.Slpv2 = &Slpv2TokenInfo{
			TokenType: convertSlpv2TokenType(getEnum(m, "slpv2_token_type")),
			GenesisInfo: Slpv2GenesisInfo{
				TokenTicker: string(getBytes(genesis, "token_ticker")),
				TokenName:   string(getBytes(genesis, "token_name")),
				Url:         string(getBytes(genesis, "url")),
				Data:        data,
				AuthPubkey:  toHex(getBytes(genesis, "auth_pubkey")),
				Decimals:    getUint32(genesis, "decimals"),
			},
		}
	}
	return info
}

// convertWsMsg maps a decoded WsMsg. ok is false for message kinds and
// enum values this client does not know.
func convertWsMsg(m map[string]interface{}) (msg WsMsg, ok bool) {
	if e := getMessage(m, "error"); e != nil {
		return WsMsg{
			Type: WsMsgTypeError,
			Error: &WsError{
				ErrorCode:   getString(e, "error_code"),
				Msg:         getString(e, "msg"),
				IsUserError: getBool(e, "is_user_error"),
			},
		}, true
	}
	if tx := getMessage(m, "tx"); tx != nil {
		var kind TxMsgType
		switch getEnum(tx, "msg_type").Name {
		case "TX_ADDED_TO_MEMPOOL":
			kind = TxMsgAddedToMempool
		case "TX_REMOVED_FROM_MEMPOOL":
			kind = TxMsgRemovedFromMempool
		case "TX_CONFIRMED":
			kind = TxMsgConfirmed
		case "TX_FINALIZED":
			kind = TxMsgFinalized
		default:
			return WsMsg{}, false
		}
		return WsMsg{
			Type: WsMsgTypeTx,
			Tx:   &MsgTx{TxMsgType: kind, Txid: toHexRev(getBytes(tx, "txid"))},
		}, true
	}
	if block := getMessage(m, "block"); block != nil {
		var kind BlockMsgType
		switch getEnum(block, "msg_type").Name {
		case "BLK_CONNECTED":
			kind = BlockMsgConnected
		case "BLK_DISCONNECTED":
			kind = BlockMsgDisconnected
		case "BLK_FINALIZED":
			kind = BlockMsgFinalized
		default:
			return WsMsg{}, false
		}
		return WsMsg{
			Type: WsMsgTypeBlock,
			Block: &MsgBlock{
				BlockMsgType: kind,
				BlockHash:    toHexRev(getBytes(block, "block_hash")),
				BlockHeight:  getInt32(block, "block_height"),
			},
		}, true
	}
	return WsMsg{}, false
}
