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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/docassist/services/masking"
)

// runMask masks personal data in text taken from the first argument,
// from --file, or from stdin, and prints the result.
func runMask(cmd *cobra.Command, args []string) error {
	var text string
	switch {
	case maskFile != "":
		data, err := os.ReadFile(maskFile)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", maskFile, err)
		}
		text = string(data)
	case len(args) > 0:
		text = args[0]
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("cannot read stdin: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		return fmt.Errorf("no text to mask")
	}

	fmt.Print(masking.Mask(text, maskTypes, maskChar))
	return nil
}
