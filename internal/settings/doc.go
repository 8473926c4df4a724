// Package settings defines the value types that make up the emulator's
// settings snapshot, their defaults and the static catalogs the UI offers
// (cameras and background sources).
//
// The types carry JSON tags matching the field names of the persisted
// backup record, so a Snapshot marshals to the same flat object the
// emulator has always written under the "Emulator Settings" key.
//
// # Validation
//
// Every structured field has a Validate method. Validation only checks the
// value itself and the relations between its own members (for example
// CircleSize.Min <= CircleSize.Max); it never looks at other settings.
// Failures are reported as *ValidationError, which matches ErrInvalidSetting
// under errors.Is.
package settings
