// Package websocket streams puzzle session events to browsers and tools.
//
// A central Hub owns every connection and is the service's EventPublisher:
// each attempt, solve, optimal solve, revealed hint and deletion is pushed
// as one JSON message to the clients watching that session.
//
// Message Protocol:
//
//	{"session_id": "a1b2", "event": "attempt", "message": "...", "attempt": {...}, "timestamp": "..."}
//
// Clients choose a session with the query parameter ?session=a1b2. Without
// it they receive the events of every session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	svc := service.NewPuzzleService(sessions, configs, hub)
//
// Concurrency:
//
// Registration, unregistration and broadcasting all happen on the Run
// goroutine. Publish only enqueues and never blocks the caller.
package websocket
