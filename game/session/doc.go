// Package session provides session management for the pyramid puzzle.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - File-backed persistence of attempt history
//   - Cleanup of idle sessions
//
// A session binds one scenario to a player (or a model under evaluation) and
// records every path they submit. Hints are revealed one at a time and the
// count survives restarts together with the attempts.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters. Caller-supplied IDs may use letters,
// digits, '-' and '_' and are matched case-insensitively.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	_ = manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", scenario)
//	attempt := sess.Submit("E1|D1|D1:key|C1|B1|A1", "straight climb")
//	_ = manager.Save(sess.ID)
//
// Persisted files also carry a snapshot of the scenario, used when the
// scenario file has since been removed.
package session
