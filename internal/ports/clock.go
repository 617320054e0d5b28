package ports

import "time"

// Clock abstrae la fuente de tiempo para poder fijarla en tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator genera identificadores únicos para mercados y posiciones.
type IDGenerator interface {
	NewID() string
}
