// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	maskTypes  []string
	maskChar   string
	maskFile   string

	rootCmd = &cobra.Command{
		Use:   "docassist",
		Short: "A document assistant: ingest clinical documents and ask grounded questions",
		Long: `Docassist indexes PDF and text documents into a local vector store,
masks Brazilian personal data before anything is indexed, and answers
questions in Portuguese grounded on the indexed content with citations.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	ingestCmd = &cobra.Command{
		Use:   "ingest [file or directory path...]",
		Short: "Ingest documents into the vector store",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest, // Defined in cmd_ingest.go
	}

	maskCmd = &cobra.Command{
		Use:   "mask [text]",
		Short: "Mask Brazilian personal data in text from an argument, file or stdin",
		RunE:  runMask, // Defined in cmd_mask.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config.yaml (defaults to ./config.yaml when present)")

	maskCmd.Flags().StringSliceVar(&maskTypes, "types", nil,
		"masking categories to apply (default: all)")
	maskCmd.Flags().StringVar(&maskChar, "mask-char", "*",
		"substitution character")
	maskCmd.Flags().StringVar(&maskFile, "file", "",
		"read the text from a file instead of an argument")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(maskCmd)
}
