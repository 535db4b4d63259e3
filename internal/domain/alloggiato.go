package domain

import "time"

// Alloggiato a housed serviceman. Matricola is the natural primary key.
type Alloggiato struct {
	Matricola          string    `json:"matricola"`
	IDGrado            int       `json:"id_grado"`
	Cognome            string    `json:"cognome"`
	Nome               string    `json:"nome"`
	Telefono           string    `json:"telefono,omitempty"`
	CodiceReparto      string    `json:"codice_reparto,omitempty"`
	DescrizioneReparto string    `json:"descrizione_reparto,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`

	Grado *Grado `json:"grado,omitempty"`
}

// AlloggiatoConCamera decorates an alloggiato with the current room, if any.
type AlloggiatoConCamera struct {
	Alloggiato
	CameraCorrente *Camera `json:"camera_corrente"`
	HaCamera       bool    `json:"ha_camera"`
}
