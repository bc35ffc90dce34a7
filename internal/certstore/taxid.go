package certstore

// taxid.go extracts the certificate holder's tax identifier (CNPJ) from the
// certificate subject. Brazilian e-CNPJ (A1) certificates conventionally carry
// the CNPJ in the common name as "COMPANY NAME:12345678000190".

// taxIDFromSubject scans the simple display name first, then the full
// distinguished name. Absence of a tax id is not an error here; the caller
// rejects the identity when the identifier is required downstream.
func taxIDFromSubject(displayName, distinguishedName string) string {
	if id := findTaxID(displayName); id != "" {
		return id
	}
	return findTaxID(distinguishedName)
}

// findTaxID looks for (a) a 14-digit run delimited by colons, else (b) any
// standalone run of exactly 14 consecutive digits. First match wins.
func findTaxID(s string) string {
	// pattern 1: colon-delimited segment that is exactly 14 digits
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ':' {
			if id := trimmedDigitRun(s[start:i]); id != "" {
				return id
			}
			start = i + 1
		}
	}

	// pattern 2: any contiguous 14-digit run
	runStart := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && isDigit(s[i]) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 && i-runStart == 14 {
			return s[runStart:i]
		}
		runStart = -1
	}
	return ""
}

// trimmedDigitRun returns the trimmed segment when it consists of exactly 14 digits.
func trimmedDigitRun(segment string) string {
	start, end := 0, len(segment)
	for start < end && segment[start] == ' ' {
		start++
	}
	for end > start && segment[end-1] == ' ' {
		end--
	}
	run := segment[start:end]
	if len(run) != 14 {
		return ""
	}
	for i := 0; i < len(run); i++ {
		if !isDigit(run[i]) {
			return ""
		}
	}
	return run
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
