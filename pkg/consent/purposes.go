package consent

import "strings"

// SplitPurposes splits a comma separated purposes field and trims every
// token. Empty tokens are kept: "a,,b" yields ["a", "", "b"] and an empty
// field yields a single empty purpose.
func SplitPurposes(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// JoinPurposes is the inverse used when writing purposes back into a form
// field.
func JoinPurposes(purposes []string) string {
	return strings.Join(purposes, ", ")
}

// CompactPurposes returns purposes without empty tokens.
func CompactPurposes(purposes []string) []string {
	out := make([]string, 0, len(purposes))
	for _, p := range purposes {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
