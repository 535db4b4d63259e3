package domain

import "time"

// Assegnazione binds one alloggiato to one camera for an open or closed
// interval. DataUscita == nil means the assignment is active. An alloggiato
// has at most one active assignment at any time; a camera holds at most
// NrPosti active assignments. Closing an assignment archives it into
// storico_assegnazioni and removes the row.
type Assegnazione struct {
	ID                  int        `json:"id"`
	MatricolaAlloggiato string     `json:"matricola_alloggiato"`
	IDCamera            int        `json:"id_camera"`
	DataAssegnazione    time.Time  `json:"data_assegnazione"`
	DataUscita          *time.Time `json:"data_uscita"`
	Note                string     `json:"note,omitempty"`
	CreatedAt           time.Time  `json:"created_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at,omitempty"`

	Alloggiato *Alloggiato `json:"alloggiato,omitempty"`
	Camera     *Camera     `json:"camera,omitempty"`
}

// Attiva reports whether the assignment is still open.
func (a *Assegnazione) Attiva() bool {
	return a.DataUscita == nil
}
