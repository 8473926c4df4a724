// Package event carries "settings updated" notifications out of the
// settings store.
//
// The store itself only knows about in-process observers. A Bridge
// subscribes to the store's change feed, captures a full snapshot for each
// relevant change and hands a SettingsUpdated event to a Publisher on its
// own goroutine, so a slow transport never blocks a setter.
//
// Two publishers are provided:
//
//   - Bus delivers events to in-process handlers, synchronously and in
//     subscription order.
//   - RedisPublisher publishes JSON-encoded events on a Redis channel for
//     other processes.
//
// # Basic Usage
//
//	pub := event.NewRedisPublisher(rdb, event.DefaultChannel)
//	bridge := event.NewBridge(store, pub, event.WithLogger(logger))
//	bridge.Start()
//	defer bridge.Close(context.Background())
package event
