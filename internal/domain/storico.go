package domain

import "time"

// StoricoAssegnazione immutable denormalized snapshot of a closed
// assignment. No foreign keys: the record outlives the alloggiato, the
// camera and the source assignment. Append-only; deletable only through
// the explicit admin purge endpoint.
type StoricoAssegnazione struct {
	ID                  int       `json:"id"`
	MatricolaAlloggiato string    `json:"matricola_alloggiato"`
	Grado               string    `json:"grado"`
	Cognome             string    `json:"cognome"`
	Nome                string    `json:"nome"`
	IDCamera            int       `json:"id_camera"`
	NumeroCamera        string    `json:"numero_camera"`
	Edificio            string    `json:"edificio,omitempty"`
	Piano               *int      `json:"piano,omitempty"`
	DataEntrata         time.Time `json:"data_entrata"`
	DataUscita          time.Time `json:"data_uscita"`
	Note                string    `json:"note,omitempty"`
	InseritoDa          string    `json:"inserito_da,omitempty"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}
