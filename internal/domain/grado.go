package domain

import "time"

// Grado military rank, many per categoria. Ordinamento drives display order.
type Grado struct {
	ID          int       `json:"id"`
	Codice      string    `json:"codice"`
	Descrizione string    `json:"descrizione"`
	IDCategoria int       `json:"id_categoria"`
	Ordinamento int       `json:"ordinamento"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`

	Categoria *Categoria `json:"categoria,omitempty"`
}
