package index

// CompareFold compares a and b byte by byte after folding ASCII upper-case
// letters to lower case. Bytes outside A-Z compare by their raw value, and a
// proper prefix sorts first. The result is negative, zero or positive, the
// same contract as strings.Compare and C's strcasecmp in the C locale.
func CompareFold(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := lower(a[i]), lower(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// EqualFold reports whether a and b are equal under ASCII case folding.
// Unlike strings.EqualFold it never applies Unicode simple folding.
func EqualFold(a, b string) bool {
	return len(a) == len(b) && CompareFold(a, b) == 0
}

// FoldKey returns s with every ASCII upper-case letter lowered.
func FoldKey(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = lower(b[j])
			}
			return string(b)
		}
	}
	return s
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
