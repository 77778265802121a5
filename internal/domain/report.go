package domain

import "time"

// VenueStatus es el estado observable de un venue al cierre de un ciclo.
type VenueStatus struct {
	Circuit   string // closed | open | half-open
	Transient int    // errores transitorios acumulados
	Permanent int    // errores permanentes acumulados
	LastError string // último error visto, "" si ninguno
}

// CycleReport resume un ciclo de detección para observabilidad y notificación.
// Un ciclo siempre completa y reporta lo que encontró: los venues o candidatos
// que fallaron aparecen aquí, nunca se descartan en silencio.
type CycleReport struct {
	At            time.Time
	Duration      time.Duration
	Snapshots     int // snapshots frescos usados
	Evaluated     int // candidatos evaluados
	Accepted      int
	Rejected      int
	Opportunities []Opportunity // todas, aceptadas primero por net profit desc
	Venues        map[string]VenueStatus
}
