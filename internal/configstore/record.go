package configstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/reflex-emulator/internal/settings"
)

// TimestampKey is the record key of the backup timestamp.
const TimestampKey = "BACKUP_TIMESTAMP"

// TimestampLayout is the German locale date-time format, e.g.
// "18.10.2026, 14:03:05".
const TimestampLayout = "2.1.2006, 15:04:05"

// FormatTimestamp renders t in loc using TimestampLayout.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimestampLayout)
}

// ParseTimestamp reads a backup timestamp written in TimestampLayout and
// interpreted in loc. RFC 3339 timestamps are accepted as well.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(TimestampLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized backup timestamp %q", value)
}

// encodeRecord builds the backup record: the timestamp first, then every
// field in record order. Nil slices are written as empty arrays.
func encodeRecord(snap settings.Snapshot, stamp string) ([]byte, error) {
	record, err := sjson.SetBytes([]byte("{}"), TimestampKey, stamp)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		v := emptyIfNil(f.get(snap))
		record, err = sjson.SetBytes(record, escapeKey(f.Name), v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
	}
	return record, nil
}

func emptyIfNil(v any) any {
	switch x := v.(type) {
	case []settings.BackgroundSource:
		if x == nil {
			return []settings.BackgroundSource{}
		}
	case []settings.ViewOption:
		if x == nil {
			return []settings.ViewOption{}
		}
	case []settings.NormalizedPoint:
		if x == nil {
			return []settings.NormalizedPoint{}
		}
	}
	return v
}

// escapeKey escapes characters gjson and sjson treat as path syntax.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isRecord reports whether data is a well-formed JSON object.
func isRecord(data []byte) bool {
	return gjson.ValidBytes(data) && gjson.ParseBytes(data).IsObject()
}

// recordTimestamp extracts the backup timestamp from a record.
func recordTimestamp(data []byte, loc *time.Location) (*time.Time, error) {
	if !isRecord(data) {
		return nil, ErrMalformedRecord
	}
	res := gjson.GetBytes(data, TimestampKey)
	if !res.Exists() || res.Type != gjson.String {
		return nil, fmt.Errorf("%s missing", TimestampKey)
	}
	t, err := ParseTimestamp(res.String(), loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Export returns the current settings in backup record form. The timestamp
// is that of the last backup and is omitted when there is none.
func (s *Store) Export() ([]byte, error) {
	snap := s.Snapshot()
	if snap.LastBackup == nil {
		record, err := encodeRecord(snap, "")
		if err != nil {
			return nil, err
		}
		return sjson.DeleteBytes(record, TimestampKey)
	}
	return encodeRecord(snap, FormatTimestamp(*snap.LastBackup, s.loc))
}
