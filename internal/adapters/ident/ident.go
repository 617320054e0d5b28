package ident

import (
	"time"

	"github.com/google/uuid"
)

// SystemClock implementa ports.Clock con el reloj del sistema en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUID implementa ports.IDGenerator con UUIDs v4.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.New().String()
}
