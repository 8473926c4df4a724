package configstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/reflex-emulator/internal/config/notify"
	"github.com/dshills/reflex-emulator/internal/metrics"
	"github.com/dshills/reflex-emulator/internal/settings"
)

// Persist writes the current settings to the durable store under the
// store key, replacing any previous record, and refreshes LastBackup.
func (s *Store) Persist(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}

	now := s.clock.Now()
	record, err := encodeRecord(s.Snapshot(), FormatTimestamp(now, s.loc))
	if err != nil {
		s.metrics.Persisted(err)
		return fmt.Errorf("encode settings record: %w", err)
	}

	if err := s.backend.Set(ctx, s.key, record); err != nil {
		s.metrics.Persisted(err)
		s.logger.Error("persist settings", "key", s.key, "err", err)
		return fmt.Errorf("persist settings: %w", err)
	}
	s.metrics.Persisted(nil)
	s.logger.Debug("settings persisted", "key", s.key, "bytes", len(record))

	s.refreshBackupTimestamp(ctx)
	return nil
}

// Restore applies the record in the durable store to the current settings.
//
// A missing record changes nothing. Fields absent from the record or set to
// null keep their current value. Fields that cannot be decoded or fail
// validation are skipped and logged. A record that is not a JSON object is
// ignored as a whole. Only backend errors are returned.
func (s *Store) Restore(ctx context.Context) error {
	return s.restore(ctx, false)
}

// RestoreStrict behaves like Restore but returns ErrMalformedRecord, and
// changes nothing, when the record is not a JSON object or does not match
// the backup record schema.
func (s *Store) RestoreStrict(ctx context.Context) error {
	return s.restore(ctx, true)
}

type decodedField struct {
	field Field
	value any
}

func (s *Store) restore(ctx context.Context, strict bool) error {
	if s.isClosed() {
		return ErrClosed
	}

	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.metrics.Restored(metrics.RestoreError)
		return fmt.Errorf("read settings record: %w", err)
	}
	if !ok {
		s.metrics.Restored(metrics.RestoreAbsent)
		s.logger.Debug("no settings record", "key", s.key)
		return nil
	}

	if !isRecord(data) {
		s.metrics.Restored(metrics.RestoreMalformed)
		s.logger.Warn("ignoring malformed settings record", "key", s.key)
		if strict {
			return ErrMalformedRecord
		}
		return nil
	}
	if strict {
		if err := validateRecord(data); err != nil {
			s.metrics.Restored(metrics.RestoreMalformed)
			return err
		}
	}

	decoded := make([]decodedField, 0, len(fields))
	for _, f := range fields {
		res := gjson.GetBytes(data, escapeKey(f.Name))
		if !res.Exists() || res.Type == gjson.Null {
			continue
		}
		v, err := f.decode([]byte(res.Raw))
		if err != nil {
			s.skipField(f.Name, err)
			continue
		}
		decoded = append(decoded, decodedField{field: f, value: v})
	}

	batch := s.changes.NewBatch()
	sink := batched(batch, notify.ChangeSet, SourceRestore)
	applied := 0
	for _, d := range decoded {
		if err := d.field.set(s, d.value, sink); err != nil {
			if errors.Is(err, ErrClosed) {
				batch.Discard()
				return err
			}
			s.skipField(d.field.Name, err)
			continue
		}
		applied++
	}
	batch.Add(notify.Change{Type: notify.ChangeReload, Source: SourceRestore})
	batch.Commit()

	s.metrics.Restored(metrics.RestoreApplied)
	s.logger.Info("settings restored", "key", s.key, "fields", applied)
	return nil
}

func (s *Store) skipField(name string, err error) {
	s.metrics.FieldSkipped(name)
	s.logger.Warn("skipping settings field", "field", name, "err", err)
}

// Clear deletes the store's record from the durable store. Other keys are
// left alone. LastBackup becomes nil.
func (s *Store) Clear(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear settings record: %w", err)
	}
	s.metrics.Cleared()
	s.logger.Info("settings record cleared", "key", s.key)

	s.refreshBackupTimestamp(ctx)
	return nil
}

// Reset clears the record and puts every setting back to its default.
// Observable settings broadcast their default values.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}

	d := settings.Defaults()
	batch := s.changes.NewBatch()
	sink := batched(batch, notify.ChangeReset, SourceReset)
	for _, f := range fields {
		if err := f.set(s, f.get(d), sink); err != nil {
			batch.Discard()
			return fmt.Errorf("reset %s: %w", f.Name, err)
		}
	}
	batch.Add(notify.Change{Type: notify.ChangeReload, Source: SourceReset})
	batch.Commit()
	return nil
}

// refreshBackupTimestamp derives LastBackup from the record currently in
// the durable store and broadcasts it. Any failure yields nil.
func (s *Store) refreshBackupTimestamp(ctx context.Context) {
	ts := s.readBackupTimestamp(ctx)
	s.lastBackup.Next(ts)
	s.metrics.Emitted(TimestampKey)
}

func (s *Store) readBackupTimestamp(ctx context.Context) *time.Time {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("read backup timestamp", "key", s.key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	ts, err := recordTimestamp(data, s.loc)
	if err != nil {
		s.logger.Debug("no usable backup timestamp", "key", s.key, "err", err)
		return nil
	}
	return ts
}
