// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package masking

import (
	"regexp"
	"strings"
)

// All patterns are compiled at package load. A pattern that fails to
// compile is a programming defect, so regexp.MustCompile is the right
// tool here: it panics at init instead of surfacing a runtime error.
var (
	cpfFormattedRe = regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`)
	cpfPlainRe     = regexp.MustCompile(`\b\d{11}\b`)

	rgFormattedRe = regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}-[\dXx]\b`)
	rgPlainRe     = regexp.MustCompile(`\b\d{9}\b`)

	cepFormattedRe = regexp.MustCompile(`\b\d{5}-\d{3}\b`)
	cepPlainRe     = regexp.MustCompile(`\b\d{8}\b`)

	emailRe = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+)(@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)

	phoneParenRe   = regexp.MustCompile(`\(\d{2}\)\s*\d{4,5}-\d{4}`)
	phoneSpacedRe  = regexp.MustCompile(`\b\d{2}\s+\d{4,5}-\d{4}\b`)
	phonePlain11Re = regexp.MustCompile(`\b\d{11}\b`)
	phonePlain10Re = regexp.MustCompile(`\b\d{10}\b`)
	nonDigitRe     = regexp.MustCompile(`\D`)

	birthDateSlashRe = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	birthDateDashRe  = regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`)
	birthDateDotRe   = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)

	prontuarioRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(Prontuário[:\s]+)(\d{6,10})\b`),
		regexp.MustCompile(`(?i)(Pront\.?[:\s]+)(\d{6,10})\b`),
		regexp.MustCompile(`(?i)(Registro[:\s]+)(\d{6,10})\b`),
		regexp.MustCompile(`(?i)(Nº do prontuário[:\s]+)(\d{6,10})\b`),
	}

	nameRe = regexp.MustCompile(`(?im)(Nome:\s*)([A-Za-zÀ-ÿ ]+?)$`)
)

// namePrepositions are the connective words inside Brazilian full names
// that stay visible when a name is masked.
var namePrepositions = map[string]bool{
	"de": true, "da": true, "do": true, "dos": true, "das": true, "e": true,
}

// MaskCPF masks CPF numbers (the Brazilian national taxpayer id).
//
// Accepted formats:
//   - XXX.XXX.XXX-XX: keeps the first 3 and last 2 digits
//   - 11 bare digits: keeps the first 3 and last 3 digits
//
// Text outside the matches is never altered and the replacement is the
// same width as the match.
func MaskCPF(text, maskChar string) string {
	text = cpfFormattedRe.ReplaceAllStringFunc(text, func(cpf string) string {
		return cpf[:3] + "." + repeat(maskChar, 3) + "." + repeat(maskChar, 3) + "-" + cpf[len(cpf)-2:]
	})
	return cpfPlainRe.ReplaceAllStringFunc(text, func(cpf string) string {
		return cpf[:3] + repeat(maskChar, 5) + cpf[len(cpf)-3:]
	})
}

// MaskRG masks RG numbers (the Brazilian state identity card).
//
// Accepted formats:
//   - XX.XXX.XXX-X: keeps the first 2 digits and the check digit
//   - 9 bare digits: keeps the first 2 and last 2 digits
func MaskRG(text, maskChar string) string {
	text = rgFormattedRe.ReplaceAllStringFunc(text, func(rg string) string {
		return rg[:2] + "." + repeat(maskChar, 3) + "." + repeat(maskChar, 3) + "-" + rg[len(rg)-1:]
	})
	return rgPlainRe.ReplaceAllStringFunc(text, func(rg string) string {
		return rg[:2] + repeat(maskChar, 5) + rg[len(rg)-2:]
	})
}

// MaskCEP masks the final 3 digits of CEP postal codes, keeping the
// 5-digit routing prefix visible. Accepts XXXXX-XXX and 8 bare digits.
func MaskCEP(text, maskChar string) string {
	text = cepFormattedRe.ReplaceAllStringFunc(text, func(cep string) string {
		return cep[:5] + "-" + repeat(maskChar, 3)
	})
	return cepPlainRe.ReplaceAllStringFunc(text, func(cep string) string {
		return cep[:5] + repeat(maskChar, 3)
	})
}

// MaskEmail masks email addresses, keeping the first 4 characters of the
// local part and the full domain. Local parts of 4 characters or fewer
// are left untouched: masking one or two characters of a short address
// destroys readability without hiding anything.
func MaskEmail(text, maskChar string) string {
	return emailRe.ReplaceAllStringFunc(text, func(email string) string {
		parts := emailRe.FindStringSubmatch(email)
		local, domain := parts[1], parts[2]
		if len(local) <= 4 {
			return local + domain
		}
		return local[:4] + repeat(maskChar, len(local)-4) + domain
	})
}

// MaskPhone masks Brazilian phone numbers, keeping only the last 4
// digits. Parenthesized, space-separated and bare 10/11-digit forms are
// recognized; the mask run mirrors the width of the original area-code
// marker so the overall format survives.
func MaskPhone(text, maskChar string) string {
	text = phoneParenRe.ReplaceAllStringFunc(text, func(phone string) string {
		digits := nonDigitRe.ReplaceAllString(phone, "")
		lastFour := digits[len(digits)-4:]
		if len(digits) == 11 {
			return "(" + repeat(maskChar, 2) + ") " + repeat(maskChar, 5) + "-" + lastFour
		}
		return "(" + repeat(maskChar, 2) + ") " + repeat(maskChar, 4) + "-" + lastFour
	})
	text = phoneSpacedRe.ReplaceAllStringFunc(text, func(phone string) string {
		digits := nonDigitRe.ReplaceAllString(phone, "")
		lastFour := digits[len(digits)-4:]
		if len(digits) == 11 {
			return repeat(maskChar, 2) + " " + repeat(maskChar, 5) + "-" + lastFour
		}
		return repeat(maskChar, 2) + " " + repeat(maskChar, 4) + "-" + lastFour
	})
	text = phonePlain11Re.ReplaceAllStringFunc(text, func(phone string) string {
		return repeat(maskChar, 7) + phone[len(phone)-4:]
	})
	return phonePlain10Re.ReplaceAllStringFunc(text, func(phone string) string {
		return repeat(maskChar, 6) + phone[len(phone)-4:]
	})
}

// MaskBirthDate masks every digit of DD/MM/YYYY, DD-MM-YYYY and
// DD.MM.YYYY dates, preserving the separators.
func MaskBirthDate(text, maskChar string) string {
	dd := repeat(maskChar, 2)
	yyyy := repeat(maskChar, 4)
	text = birthDateSlashRe.ReplaceAllString(text, dd+"/"+dd+"/"+yyyy)
	text = birthDateDashRe.ReplaceAllString(text, dd+"-"+dd+"-"+yyyy)
	return birthDateDotRe.ReplaceAllString(text, dd+"."+dd+"."+yyyy)
}

// MaskProntuario masks medical record numbers, keeping the last 3 digits
// visible. Record numbers are only recognized in context: 6 to 10 digits
// immediately preceded by a labeling keyword ("Prontuário", "Pront.",
// "Registro", "Nº do prontuário", case-insensitive). Bare digit runs
// without a label are left for the other numeric rules.
func MaskProntuario(text, maskChar string) string {
	for _, re := range prontuarioRes {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			parts := re.FindStringSubmatch(match)
			label, number := parts[1], parts[2]
			return label + repeat(maskChar, len(number)-3) + number[len(number)-3:]
		})
	}
	return text
}

// MaskName masks person names that follow a literal "Nome:" label, up to
// the end of the line. The first letter of each word stays visible,
// single-letter words and the prepositions de/da/do/dos/das/e pass
// through unmasked, and every other letter is replaced 1:1 by the mask
// character.
func MaskName(text, maskChar string) string {
	return nameRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := nameRe.FindStringSubmatch(match)
		label := parts[1]
		words := strings.Fields(parts[2])
		masked := make([]string, 0, len(words))
		for _, word := range words {
			runes := []rune(word)
			if len(runes) == 1 || namePrepositions[strings.ToLower(word)] {
				masked = append(masked, word)
				continue
			}
			masked = append(masked, string(runes[0])+repeat(maskChar, len(runes)-1))
		}
		return label + strings.Join(masked, " ")
	})
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
