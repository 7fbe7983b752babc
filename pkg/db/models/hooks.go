package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUIDv4 when the caller left the primary key empty.
// Ids are generated in Go so sqlite-backed runs behave like postgres.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
