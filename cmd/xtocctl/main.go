// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command xtocctl is a smoke-test CLI for the XTOC codec and packet
// store: it can decode a single wrapper from stdin, or import a backup
// document into a local bbolt file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wavelink-radio/xtoc-core"
	"github.com/wavelink-radio/xtoc-core/xtoccore"
	"github.com/wavelink-radio/xtoc-core/xtoccrypto"
	"github.com/wavelink-radio/xtoc-core/xtocimport"
	"github.com/wavelink-radio/xtoc-core/xtocstore"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("xtocctl failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: xtocctl decode [-keyfile path]")
	fmt.Fprintln(os.Stderr, "       xtocctl import -db path -backup path")
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	keyfile := fs.String("keyfile", "", "path to a JSON {\"kid\":N,\"key\":\"base64url\"} team key for SECURE envelopes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	line, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	codec := &xtoc.Codec{}
	if *keyfile != "" {
		raw, err := os.ReadFile(*keyfile)
		if err != nil {
			return fmt.Errorf("read keyfile: %w", err)
		}
		var entry struct {
			Kid int    `json:"kid"`
			Key string `json:"key"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("parse keyfile: %w", err)
		}
		keyBytes, err := xtoccore.DecodeBase64URL(entry.Key)
		if err != nil {
			return err
		}
		kr, err := xtoccrypto.NewStaticKeyring(entry.Kid, map[int][]byte{entry.Kid: keyBytes})
		if err != nil {
			return err
		}
		codec.Keyring = kr
	}

	decoded, err := codec.Decode(trimNewline(string(line)))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	out, err := json.MarshalIndent(struct {
		TemplateID int         `json:"templateId"`
		Mode       string      `json:"mode"`
		ID         string      `json:"id"`
		Part       int         `json:"part"`
		Total      int         `json:"total"`
		Payload    interface{} `json:"payload"`
	}{
		TemplateID: int(decoded.TemplateID),
		Mode:       decoded.Mode.String(),
		ID:         decoded.ID,
		Part:       decoded.Part,
		Total:      decoded.Total,
		Payload:    decoded.Payload,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the bbolt packet store file")
	backupPath := fs.String("backup", "", "path to a backup document JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" || *backupPath == "" {
		return fmt.Errorf("both -db and -backup are required")
	}

	raw, err := os.ReadFile(*backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	var doc xtocimport.BackupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}

	store, err := xtocstore.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sum, err := xtocimport.Import(store, &doc)
	if err != nil {
		return err
	}
	log.Info().
		Int("total", sum.PacketsTotal).
		Int("imported", sum.PacketsImported).
		Int("failed", sum.PacketsFailed).
		Msg("import complete")
	for _, e := range sum.Errors {
		log.Warn().Int("index", e.Index).Str("reason", e.Reason).Msg("packet failed to parse or decode")
	}
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

