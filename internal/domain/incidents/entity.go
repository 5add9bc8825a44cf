package incidents

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// IncidentID is derived from the save time, e.g. inc_20261016093000_1a2b3c4d.
type IncidentID string

// Defaults applied to fields the caller leaves empty.
const (
	DefaultType     = "general"
	DefaultPlatform = "unknown"
	DefaultSeverity = "unknown"
)

// ErrNotFound is returned by repositories that track individual records.
var ErrNotFound = errors.New("incident not found")

// Incident is a user-documented harassment event.
type Incident struct {
	ID        IncidentID `json:"id"`
	Type      string     `json:"type"`
	Platform  string     `json:"platform"`
	Message   string     `json:"message"`
	Severity  string     `json:"severity"`
	Notes     string     `json:"notes"`
	Timestamp time.Time  `json:"timestamp"`
}

// ApplyDefaults fills empty classification fields.
func (i *Incident) ApplyDefaults() {
	if i.Type == "" {
		i.Type = DefaultType
	}
	if i.Platform == "" {
		i.Platform = DefaultPlatform
	}
	if i.Severity == "" {
		i.Severity = DefaultSeverity
	}
}

// naiveLayout matches Python's datetime.isoformat() without a zone, which is
// how older incident files were written. Fractional seconds are optional.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts RFC 3339 timestamps and zone-less ISO timestamps,
// the latter read as server local time.
func (i *Incident) UnmarshalJSON(data []byte) error {
	type plain Incident
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Timestamp = time.Time{}
	if aux.Timestamp == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, aux.Timestamp); err == nil {
		i.Timestamp = t
		return nil
	}
	t, err := time.ParseInLocation(naiveLayout, aux.Timestamp, time.Local)
	if err != nil {
		return errors.Wrapf(err, "incident %s: timestamp %q", i.ID, aux.Timestamp)
	}
	i.Timestamp = t
	return nil
}
