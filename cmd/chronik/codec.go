package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a protobuf payload and print its JSON form",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync() //nolint:errcheck

		messageType, _ := cmd.Flags().GetString("type")
		data, err := readPayload(cmd)
		if err != nil {
			return err
		}

		codec, err := newCodec(cfg, l)
		if err != nil {
			return err
		}
		msg, err := codec.Decode(messageType, data)
		if err != nil {
			return err
		}
		obj, err := codec.ToPlainObject(messageType, msg)
		if err != nil {
			return err
		}
		return printJSON(cmd, obj)
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a JSON message and print the payload as hex",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync() //nolint:errcheck

		messageType, _ := cmd.Flags().GetString("type")
		var in io.Reader = cmd.InOrStdin()
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		obj := map[string]interface{}{}
		dec := json.NewDecoder(in)
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}

		codec, err := newCodec(cfg, l)
		if err != nil {
			return err
		}
		msg, err := codec.FromPlainObject(messageType, obj)
		if err != nil {
			return err
		}
		data, err := codec.Encode(messageType, msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
		return err
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List the message types of the schema generation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync() //nolint:errcheck

		codec, err := newCodec(cfg, l)
		if err != nil {
			return err
		}
		names := codec.ListMessages()
		if enums, _ := cmd.Flags().GetBool("enums"); enums {
			names = codec.ListEnums()
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func readPayload(cmd *cobra.Command) ([]byte, error) {
	if s, _ := cmd.Flags().GetString("hex"); s != "" {
		data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
		if err != nil {
			return nil, fmt.Errorf("--hex: %w", err)
		}
		return data, nil
	}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return os.ReadFile(file)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, cmd.InOrStdin()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
