package repository

import (
	"context"
	"time"

	"caserma-alloggi/internal/domain"
)

// CamereFilter optional list filters. Nil pointer means "not provided".
type CamereFilter struct {
	Edificio        string
	Piano           *int
	Genere          string
	IDCategoria     *int
	SoloDisponibili bool
}

// AlloggiatiFilter optional list filters. Cognome and Reparto are
// substring matches.
type AlloggiatiFilter struct {
	IDGrado     *int
	IDCategoria *int
	Cognome     string
	Reparto     string
	ConCamera   bool
	SenzaCamera bool
}

// AssegnazioniFilter optional list filters. SoloAttive selects rows with
// data_uscita IS NULL.
type AssegnazioniFilter struct {
	IDCamera   *int
	Matricola  string
	SoloAttive bool
}

// StoricoFilter optional history filters. Grado is a substring match on
// the denormalized rank description.
type StoricoFilter struct {
	Matricola     string
	IDCamera      *int
	NumeroCamera  string
	Grado         string
	Edificio      string
	DataEntrataDa *time.Time
	DataEntrataA  *time.Time
	DataUscitaDa  *time.Time
	DataUscitaA   *time.Time
}

// MoveResult outcome of a successful room move.
type MoveResult struct {
	CameraPrecedente string
	CameraNuova      string
	Assegnazione     *domain.Assegnazione
}

// DeleteResult outcome of a hard (non-archiving) assignment delete.
type DeleteResult struct {
	Matricola    string
	NumeroCamera string
}

type CategorieRepository interface {
	ListCategorie(ctx context.Context) ([]*domain.Categoria, error)
	GetCategoria(ctx context.Context, id int) (*domain.Categoria, error)
}

type GradiRepository interface {
	// ListGradi returns all ranks ordered by ordinamento; idCategoria > 0
	// restricts to one category.
	ListGradi(ctx context.Context, idCategoria int) ([]*domain.Grado, error)
	GetGrado(ctx context.Context, id int) (*domain.Grado, error)
}

type CamereRepository interface {
	// ListCamere returns rooms with live occupancy (recomputed per call)
	// and the active assignments eager-loaded with alloggiato+grado.
	ListCamere(ctx context.Context, f CamereFilter) ([]*domain.CameraConDisponibilita, error)
	GetCamera(ctx context.Context, id int) (*domain.Camera, error)
	GetCameraByNumero(ctx context.Context, numero string) (*domain.Camera, error)
	// GetOccupazione builds the per-room occupancy projection with the
	// current occupant list.
	GetOccupazione(ctx context.Context, id int) (*domain.CameraOccupazione, error)
	CreateCamera(ctx context.Context, c *domain.Camera) (int, error)
	// UpdateCamera refuses with ValidationError to shrink nr_posti below
	// the current occupants; the check and the write run atomically.
	UpdateCamera(ctx context.Context, c *domain.Camera) error
}

type AlloggiatiRepository interface {
	ListAlloggiati(ctx context.Context, f AlloggiatiFilter) ([]*domain.AlloggiatoConCamera, error)
	GetAlloggiato(ctx context.Context, matricola string) (*domain.Alloggiato, error)
	GetAlloggiatoConCamera(ctx context.Context, matricola string) (*domain.AlloggiatoConCamera, error)
	CreateAlloggiato(ctx context.Context, a *domain.Alloggiato) error
	UpdateAlloggiato(ctx context.Context, a *domain.Alloggiato) error
	// DeleteAlloggiato fails with ConflictError while an active assignment
	// exists; the check and the delete run in one transaction.
	DeleteAlloggiato(ctx context.Context, matricola string) error
}

// AssegnazioniRepository owns the allocation state transitions. Assign,
// Move, Close and Delete each run in a single transaction holding FOR
// UPDATE locks on the alloggiato row and the camera row(s) involved, so
// exclusivity and capacity checks are atomic with the write. Failures are
// reported through the domain error taxonomy.
type AssegnazioniRepository interface {
	ListAssegnazioni(ctx context.Context, f AssegnazioniFilter) ([]*domain.Assegnazione, error)
	GetAssegnazione(ctx context.Context, id int) (*domain.Assegnazione, error)
	GetAssegnazioneAttiva(ctx context.Context, matricola string) (*domain.Assegnazione, error)
	Assign(ctx context.Context, matricola string, idCamera int, dataAssegnazione time.Time, note string) (*domain.Assegnazione, error)
	Move(ctx context.Context, matricola string, idCameraDestinazione int, note string) (*MoveResult, error)
	// Close archives into storico_assegnazioni and deletes the assignment
	// row in the same transaction (the History Archiver path).
	Close(ctx context.Context, idAssegnazione int, dataUscita time.Time, note, inseritoDa string) (*domain.StoricoAssegnazione, error)
	// Delete hard-deletes with no history trace. Corrective action only;
	// the normal removal path is Close.
	Delete(ctx context.Context, idAssegnazione int) (*DeleteResult, error)
}

type StoricoRepository interface {
	ListStorico(ctx context.Context, f StoricoFilter) ([]*domain.StoricoAssegnazione, error)
	GetStorico(ctx context.Context, id int) (*domain.StoricoAssegnazione, error)
	DeleteStorico(ctx context.Context, id int) error
}

// AdminRepository allow-list lookup backing the isAdmin gate.
type AdminRepository interface {
	// IsAdmin reports whether any of the given matricola spellings is in
	// tbl_admin.
	IsAdmin(ctx context.Context, matricole ...string) (bool, error)
}
