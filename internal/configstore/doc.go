// Package configstore is the single source of truth for the emulator's
// settings.
//
// A Store holds every setting in memory, answers synchronous reads, and
// broadcasts changes of the observable settings (touch point count, layer
// configuration, normalized touch points, background image, active point
// and the last backup timestamp) to subscribers. It backs the whole
// snapshot up to a durable.Store under a single key and restores it on
// request.
//
// # Observing
//
// Observable settings come in two flavors. Replaying settings hand their
// current value to a new subscriber before ObserveX returns:
//
//	sub := store.ObserveTouchPointCount(func(n int) {
//	    fmt.Println("touch points:", n)
//	})
//	defer sub.Unsubscribe()
//
// The background image and the active point only deliver values emitted
// after subscribing. Subscribers run synchronously on the goroutine calling
// the setter. A subscriber may call setters of other settings, but must not
// set the setting it is being notified about.
//
// Besides the typed observers, Changes returns a field-keyed feed of every
// change, used to forward settings updates to other processes.
//
// # Backup record
//
// Persist writes one flat JSON object:
//
//	{
//	  "BACKUP_TIMESTAMP": "18.10.2026, 14:03:05",
//	  "amountProjectionLayers": 7,
//	  "amountTouchPoints": 3,
//	  ...
//	}
//
// The timestamp uses the German locale date-time layout and the field
// names are the record keys listed by Fields. Restore applies every field
// present in the record and leaves missing ones alone. A record that is not
// a JSON object is ignored by Restore and rejected by RestoreStrict.
package configstore
