package audit

import (
	"time"

	"github.com/ppiankov/guardmap/internal/model"
)

// TimeFormat is the timestamp layout of the ts field.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Decision labels used in evidence breakdowns.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Entry is one guardrail decision in the hash-chained JSONL log.
// Fields are plain values (no maps) so json.Marshal output is
// deterministic and hashes are reproducible.
type Entry struct {
	Timestamp  string `json:"ts"`
	Tool       string `json:"tool"`
	Allowed    bool   `json:"allowed"`
	PolicyID   string `json:"policy_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
	PolicyHash string `json:"policy_hash"`
	PrevHash   string `json:"prev_hash"`
}

// Decision returns "allow" or "block".
func (e Entry) Decision() string {
	if e.Allowed {
		return DecisionAllow
	}
	return DecisionBlock
}

// Time parses the entry timestamp. Unparseable timestamps yield zero time.
func (e Entry) Time() time.Time {
	t, err := time.Parse(TimeFormat, e.Timestamp)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, e.Timestamp)
	}
	return t
}

// NewEntry builds an entry for a decision on req.
func NewEntry(req model.ActionRequest, d model.Decision, policyHash string) Entry {
	return Entry{
		Tool:       req.Tool,
		Allowed:    d.Allowed,
		PolicyID:   d.PolicyID,
		Reason:     d.Reason,
		PolicyHash: policyHash,
	}
}
