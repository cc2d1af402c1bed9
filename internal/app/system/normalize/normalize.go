// internal/app/system/normalize/normalize.go
// Package normalize provides canonical forms for member contact fields
// before they are persisted or compared.
package normalize

import "strings"

// Email trims whitespace and lowercases the address. Emails are always
// compared in this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case; case-folded
// comparison uses the separate *_ci fields.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips everything except digits and a leading "+", so
// "+55 (81) 99999-0000" and "5581999990000" compare equal apart from
// the country-code prefix.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
