// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package masking redacts Brazilian personally identifiable information
// from free text before it is indexed or displayed.
//
// Eight built-in rules cover the common Brazilian identifiers: person
// names after a "Nome:" label, birth dates, medical record numbers
// (prontuário), CPF, RG, email addresses, phone numbers and CEP postal
// codes. Each rule is a pure function from text to text: it rewrites
// only its own matches, preserves the overall width and format of what
// it masks, and keeps a small visible remnant (first digits, last
// digits, domain) so masked documents stay legible.
//
// Rule order matters. An 11-digit run is a CPF to the CPF rule and a
// phone number to the phone rule; the canonical order applied by
// MaskAll resolves such overlaps deterministically (names and labeled
// numbers first, broad numeric rules last).
package masking

import (
	"regexp"
	"sort"
)

// DefaultMaskChar is the substitution character used when callers do
// not pick one.
const DefaultMaskChar = "*"

// Rule is a single masking rule: a stable category name and the pure
// transform that applies it.
type Rule struct {
	// Name is the category key used for selective masking.
	Name string

	// Apply rewrites every occurrence of the rule's category in text,
	// substituting maskChar for the hidden characters.
	Apply func(text, maskChar string) string
}

// CustomPattern is a caller-supplied substitution applied after the
// built-in rules. Replacement follows regexp.ReplaceAllString syntax,
// so $1 style group references work.
type CustomPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// ===== Rule registry =====

// Rules lists the built-in rules in canonical application order:
// context-dependent rules (name, birth date, record number) run before
// the identifier rules, and the broad bare-digit rules (phone, CEP) run
// last so that CPF and RG claim their digit runs first.
var Rules = []Rule{
	{Name: "nome", Apply: MaskName},
	{Name: "birth_date", Apply: MaskBirthDate},
	{Name: "prontuario", Apply: MaskProntuario},
	{Name: "cpf", Apply: MaskCPF},
	{Name: "rg", Apply: MaskRG},
	{Name: "email", Apply: MaskEmail},
	{Name: "phone", Apply: MaskPhone},
	{Name: "cep", Apply: MaskCEP},
}

var rulesByName = func() map[string]int {
	byName := make(map[string]int, len(Rules))
	for i, r := range Rules {
		byName[r.Name] = i
	}
	return byName
}()

// Categories returns the names of the built-in rules in canonical
// order. The slice is a copy; callers may modify it.
func Categories() []string {
	names := make([]string, len(Rules))
	for i, r := range Rules {
		names[i] = r.Name
	}
	return names
}

// ===== Entry points =====

// MaskAll applies every built-in rule in canonical order, then any
// caller-supplied custom patterns. Empty maskChar falls back to
// DefaultMaskChar.
//
// # Description
//
// This is the full-pipeline entry point used before indexing documents
// that may contain patient data. The output is stable: masking already
// masked text is a no-op because the mask character cannot re-match any
// rule's pattern.
//
// # Inputs
//   - text: the text to redact. Returned unchanged when no rule matches.
//   - maskChar: substitution character, usually "*".
//   - custom: extra substitutions applied after the built-in rules, in
//     slice order. May be nil.
//
// # Outputs
//   - The redacted text.
func MaskAll(text, maskChar string, custom []CustomPattern) string {
	if maskChar == "" {
		maskChar = DefaultMaskChar
	}
	for _, rule := range Rules {
		text = rule.Apply(text, maskChar)
	}
	for _, cp := range custom {
		text = cp.Pattern.ReplaceAllString(text, cp.Replacement)
	}
	return text
}

// Mask applies only the named categories, preserving the canonical
// relative order regardless of the order the caller lists them in. An
// empty or nil categories slice means all categories. Unknown category
// names are ignored.
func Mask(text string, categories []string, maskChar string) string {
	if maskChar == "" {
		maskChar = DefaultMaskChar
	}
	if len(categories) == 0 {
		return MaskAll(text, maskChar, nil)
	}
	selected := make([]int, 0, len(categories))
	seen := make(map[int]bool, len(categories))
	for _, name := range categories {
		idx, ok := rulesByName[name]
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		selected = append(selected, idx)
	}
	sort.Ints(selected)
	for _, idx := range selected {
		text = Rules[idx].Apply(text, maskChar)
	}
	return text
}
