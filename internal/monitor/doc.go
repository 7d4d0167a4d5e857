// Package monitor mirrors bridge resource state onto MQTT and
// WebSocket subscribers.
//
// # Architecture
//
//	┌──────────────┐  poll (local only)  ┌─────────────┐
//	│   Monitor    │────────────────────▶│  bridges    │
//	│              │                     └─────────────┘
//	│  state cache │
//	│  (diff)      │   changed resources
//	│              │──────┬─────────────────────────────┐
//	└──────────────┘      ▼                             ▼
//	               ┌─────────────┐              ┌──────────────┐
//	               │ MQTT topics │              │ WebSocket    │
//	               │ state/event │              │ hub          │
//	               └─────────────┘              └──────────────┘
//
// Each poll fetches a bridge's full resource list in one dispatch,
// diffs it against the in-memory cache, and emits add/update/delete
// events for what actually changed. The first poll per bridge seeds
// the cache and the retained state topics without emitting events, so
// a service restart does not replay the whole house.
//
// # Usage
//
//	mon, err := monitor.New(monitor.Options{
//	    Config:     cfg.Monitor,
//	    Dispatcher: router,
//	    Bridges:    bridgeRepo,
//	    Publisher:  mqttClient,
//	    Logger:     logger,
//	})
//	mon.Start(ctx)
//	defer mon.Stop()
//
// # Thread Safety
//
// Start, Stop, and Status are safe for concurrent use. The resource
// cache is confined to the poll goroutine.
package monitor
