package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult holds the outcome of a hash chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify reads a decision log and validates the hash chain, reporting
// the first broken link.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	expected := GenesisHash
	n := 0

	for scanner.Scan() {
		n++
		line := scanner.Bytes()

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return VerifyResult{Lines: n - 1, Error: fmt.Sprintf("parse error: %v", err), ErrorLine: n}
		}
		if e.PrevHash != expected {
			if n == 1 {
				return VerifyResult{
					Error:     fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", e.PrevHash),
					ErrorLine: 1,
				}
			}
			return VerifyResult{
				Lines:     n - 1,
				Error:     fmt.Sprintf("hash mismatch: expected %s, got %s", expected, e.PrevHash),
				ErrorLine: n,
			}
		}
		expected = HashLine(line)
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}
	return VerifyResult{Valid: true, Lines: n}
}
