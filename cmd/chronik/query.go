package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/givelotus/chronik-go/client"
)

var blockchainInfoCmd = &cobra.Command{
	Use:   "blockchain-info",
	Short: "Print the current tip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		info, err := c.BlockchainInfo(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var txCmd = &cobra.Command{
	Use:   "tx <txid>",
	Short: "Print a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		tx, err := c.Tx(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, tx)
	},
}

var rawTxCmd = &cobra.Command{
	Use:   "raw-tx <txid>",
	Short: "Print the serialized transaction as hex",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		raw, err := c.RawTx(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
		return err
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <hash-or-height>",
	Short: "Print a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		block, err := c.Block(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, block)
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks <start-height> <end-height>",
	Short: "Print the block infos of an inclusive height range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid start height: %w", err)
		}
		end, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid end height: %w", err)
		}
		c, err := setupClient()
		if err != nil {
			return err
		}
		blocks, err := c.Blocks(cmd.Context(), int32(start), int32(end))
		if err != nil {
			return err
		}
		return printJSON(cmd, blocks)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <token-id>",
	Short: "Print the genesis info of a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		info, err := c.TokenInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <script-type> <payload>",
	Short: "Print a page of the tx history of a script",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		var opts []client.HistoryOption
		if cmd.Flags().Changed("page") {
			page, _ := cmd.Flags().GetInt("page")
			opts = append(opts, client.WithPage(page))
		}
		if cmd.Flags().Changed("page-size") {
			pageSize, _ := cmd.Flags().GetInt("page-size")
			opts = append(opts, client.WithPageSize(pageSize))
		}
		page, err := c.Script(client.ScriptType(args[0]), args[1]).History(cmd.Context(), opts...)
		if err != nil {
			return err
		}
		return printJSON(cmd, page)
	},
}

var utxosCmd = &cobra.Command{
	Use:   "utxos <script-type> <payload>",
	Short: "Print the UTXOs of a script",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setupClient()
		if err != nil {
			return err
		}
		utxos, err := c.Script(client.ScriptType(args[0]), args[1]).Utxos(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, utxos)
	},
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <raw-tx-hex>...",
	Short: "Broadcast one or more transactions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawTxs := make([][]byte, len(args))
		for i, arg := range args {
			raw, err := hex.DecodeString(arg)
			if err != nil {
				return fmt.Errorf("tx %d is not hex: %w", i, err)
			}
			rawTxs[i] = raw
		}
		skipSlpCheck, _ := cmd.Flags().GetBool("skip-slp-check")

		c, err := setupClient()
		if err != nil {
			return err
		}
		if len(rawTxs) == 1 {
			txid, err := c.BroadcastTx(cmd.Context(), rawTxs[0], skipSlpCheck)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), txid)
			return err
		}
		txids, err := c.BroadcastTxs(cmd.Context(), rawTxs, skipSlpCheck)
		if err != nil {
			return err
		}
		for _, txid := range txids {
			fmt.Fprintln(cmd.OutOrStdout(), txid)
		}
		return nil
	},
}

var validateUtxosCmd = &cobra.Command{
	Use:   "validate-utxos <txid:out-idx>...",
	Short: "Print the state of one or more outpoints",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outpoints := make([]client.OutPoint, len(args))
		for i, arg := range args {
			outpoint, err := parseOutPoint(arg)
			if err != nil {
				return err
			}
			outpoints[i] = outpoint
		}
		c, err := setupClient()
		if err != nil {
			return err
		}
		states, err := c.ValidateUtxos(cmd.Context(), outpoints)
		if err != nil {
			return err
		}
		return printJSON(cmd, states)
	},
}

// parseOutPoint reads "txid:out-idx".
func parseOutPoint(s string) (client.OutPoint, error) {
	txid, idx, ok := strings.Cut(s, ":")
	if !ok {
		return client.OutPoint{}, fmt.Errorf("outpoint %q: expected txid:out-idx", s)
	}
	outIdx, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return client.OutPoint{}, fmt.Errorf("outpoint %q: invalid output index: %w", s, err)
	}
	return client.OutPoint{Txid: txid, OutIdx: uint32(outIdx)}, nil
}

func setupClient() (*client.Client, error) {
	cfg, l, err := setup()
	if err != nil {
		return nil, err
	}
	return newClient(cfg, l)
}
