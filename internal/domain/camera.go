package domain

import "time"

// Stato occupazione camera.
const (
	StatoLibera   = "Libera"
	StatoParziale = "Parziale"
	StatoCompleta = "Completa"
)

// Camera a barracks room. Agibile=false forbids new assignments;
// Manutenzione is advisory only, no constraint.
type Camera struct {
	ID           int       `json:"id"`
	NumeroCamera string    `json:"numero_camera"`
	Piano        int       `json:"piano"`
	Ala          string    `json:"ala,omitempty"`
	Edificio     string    `json:"edificio"`
	NrPosti      int       `json:"nr_posti"`
	Genere       string    `json:"genere"`
	IDCategoria  int       `json:"id_categoria"`
	Note         string    `json:"note,omitempty"`
	Agibile      bool      `json:"agibile"`
	Manutenzione bool      `json:"manutenzione"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`

	Categoria *Categoria `json:"categoria,omitempty"`
}

// StatoOccupazione classifies occupancy against capacity.
func StatoOccupazione(occupati, posti int) string {
	switch {
	case occupati == 0:
		return StatoLibera
	case occupati < posti:
		return StatoParziale
	default:
		return StatoCompleta
	}
}

// CameraOccupazione is the per-room occupancy projection. It is derived,
// never stored: recomputed from active assignments on every read.
type CameraOccupazione struct {
	Camera        *Camera        `json:"camera"`
	PostiTotali   int            `json:"posti_totali"`
	PostiOccupati int            `json:"posti_occupati"`
	PostiLiberi   int            `json:"posti_liberi"`
	Stato         string         `json:"stato"`
	Alloggiati    []*Assegnazione `json:"alloggiati"`
}

// CameraConDisponibilita decorates a camera with its live occupancy for
// list responses.
type CameraConDisponibilita struct {
	Camera
	Assegnazioni  []*Assegnazione `json:"assegnazioni,omitempty"`
	PostiOccupati int             `json:"posti_occupati"`
	PostiLiberi   int             `json:"posti_liberi"`
	Stato         string          `json:"stato"`
}
