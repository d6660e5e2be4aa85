package logging

import "log/slog"

// Common field names for consistent logging across the server.
const (
	FieldConnID   = "conn_id"
	FieldStoreID  = "store_id"
	FieldRemote   = "remote"
	FieldSequence = "sequence"
	FieldError    = "error"
	FieldPath     = "path"
)

// ConnID returns a slog attribute for a connection session ID.
func ConnID(id string) slog.Attr {
	return slog.String(FieldConnID, id)
}

// StoreID returns a slog attribute for a record store ID.
func StoreID(id string) slog.Attr {
	return slog.String(FieldStoreID, id)
}

// Remote returns a slog attribute for a peer address.
func Remote(addr string) slog.Attr {
	return slog.String(FieldRemote, addr)
}

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
