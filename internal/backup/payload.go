package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
	"github.com/PolarWolf314/instivault/internal/store"
)

// DefaultAppName is stamped into Metadata.App unless overridden.
const DefaultAppName = "instivault"

// Snapshot maps a collection name to its records.
type Snapshot map[string][]store.Record

// Counts returns the number of records per collection.
func (s Snapshot) Counts() map[string]int {
	counts := make(map[string]int, len(s))
	for name, recs := range s {
		counts[name] = len(recs)
	}
	return counts
}

// Names returns the collection names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total returns the number of records across all collections.
func (s Snapshot) Total() int {
	total := 0
	for _, recs := range s {
		total += len(recs)
	}
	return total
}

// normalized returns a copy with no nil collections, so every collection
// serializes as an array and an empty snapshot serializes as {}.
func (s Snapshot) normalized() Snapshot {
	out := make(Snapshot, len(s))
	for name, recs := range s {
		if recs == nil {
			recs = []store.Record{}
		}
		out[name] = recs
	}
	return out
}

// firstNilRecord reports the first nil record, in collection order.
func (s Snapshot) firstNilRecord() (string, int, bool) {
	for _, name := range s.Names() {
		for i, rec := range s[name] {
			if rec == nil {
				return name, i, true
			}
		}
	}
	return "", 0, false
}

// Metadata describes a backup. It is encrypted along with the data.
type Metadata struct {
	App       string         `json:"app"`
	Timestamp string         `json:"timestamp"`
	LockedTo  string         `json:"lockedTo"`
	BackupID  string         `json:"backupId,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// Payload is the plaintext sealed inside an Envelope.
type Payload struct {
	Metadata Metadata `json:"metadata"`
	Data     Snapshot `json:"data"`
}

// parsePayload decodes decrypted bytes. Decoder errors are not wrapped because
// their text can quote the plaintext.
func parsePayload(plaintext []byte) (*Payload, error) {
	var raw struct {
		Metadata Metadata  `json:"metadata"`
		Data     *Snapshot `json:"data"`
	}

	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decrypted payload is not a valid backup", kerrors.ErrInvalidFormat)
	}
	if raw.Data == nil {
		return nil, fmt.Errorf("%w: decrypted payload has no data", kerrors.ErrInvalidFormat)
	}
	if name, i, ok := raw.Data.firstNilRecord(); ok {
		return nil, fmt.Errorf("%w: record %d in %s is not an object", kerrors.ErrInvalidFormat, i, name)
	}

	return &Payload{
		Metadata: raw.Metadata,
		Data:     raw.Data.normalized(),
	}, nil
}
