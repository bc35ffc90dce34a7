// Package danfe renders the auxiliary document view (DANFE) of a fiscal
// document as a self-contained HTML page.
package danfe

import (
	"fmt"
	"strings"
)

// FormatAccessKey groups the 44-digit access key into space-separated blocks
// of four, the form printed on the physical document.
func FormatAccessKey(key string) string {
	var groups []string
	for i := 0; i < len(key); i += 4 {
		end := i + 4
		if end > len(key) {
			end = len(key)
		}
		groups = append(groups, key[i:end])
	}
	return strings.Join(groups, " ")
}

// FormatTaxID punctuates a CNPJ (14 digits) or CPF (11 digits). Any other
// length passes through unchanged.
func FormatTaxID(id string) string {
	switch len(id) {
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", id[0:2], id[2:5], id[5:8], id[8:12], id[12:14])
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", id[0:3], id[3:6], id[6:9], id[9:11])
	default:
		return id
	}
}

// FormatDate rewrites the leading ISO date of a timestamp as DD/MM/YYYY.
// Values without an ISO date prefix pass through unchanged.
func FormatDate(value string) string {
	if len(value) < 10 {
		return value
	}
	parts := strings.Split(value[:10], "-")
	if len(parts) != 3 {
		return value
	}
	return fmt.Sprintf("%s/%s/%s", parts[2], parts[1], parts[0])
}
