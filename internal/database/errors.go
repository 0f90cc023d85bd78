// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package database

import (
	"io"
	"strings"
)

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// isTransactionConflict reports whether the error is a DuckDB transaction
// conflict. Conflicts are expected under concurrent writes and are safe to
// retry; per-vessel locking makes them rare but not impossible when the
// optimizer touches overlapping index pages.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "TransactionContext") ||
		strings.Contains(msg, "Conflict on") ||
		strings.Contains(msg, "write-write conflict")
}
