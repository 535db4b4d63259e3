package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"caserma-alloggi/internal/domain"
)

// MemoryStore in-memory implementation of every repository interface,
// for DB-less development runs and unit tests. One store, one lock: the
// allocation invariants span alloggiati, camere and assegnazioni, so the
// state lives together and every operation is atomic under the mutex.
type MemoryStore struct {
	mu sync.RWMutex

	categorie  map[int]*domain.Categoria
	gradi      map[int]*domain.Grado
	camere     map[int]*domain.Camera
	alloggiati map[string]*domain.Alloggiato
	assegn     map[int]*domain.Assegnazione
	storico    map[int]*domain.StoricoAssegnazione
	admins     map[string]bool

	nextCameraID  int
	nextAssegnID  int
	nextStoricoID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categorie:     map[int]*domain.Categoria{},
		gradi:         map[int]*domain.Grado{},
		camere:        map[int]*domain.Camera{},
		alloggiati:    map[string]*domain.Alloggiato{},
		assegn:        map[int]*domain.Assegnazione{},
		storico:       map[int]*domain.StoricoAssegnazione{},
		admins:        map[string]bool{},
		nextCameraID:  1,
		nextAssegnID:  1,
		nextStoricoID: 1,
	}
}

var (
	_ CategorieRepository    = (*MemoryStore)(nil)
	_ GradiRepository        = (*MemoryStore)(nil)
	_ CamereRepository       = (*MemoryStore)(nil)
	_ AlloggiatiRepository   = (*MemoryStore)(nil)
	_ AssegnazioniRepository = (*MemoryStore)(nil)
	_ StoricoRepository      = (*MemoryStore)(nil)
	_ AdminRepository        = (*MemoryStore)(nil)
)

// Seed loads a minimal fixture set: the two personnel categories with a
// few ranks each, and a handful of rooms. Used by the DB-less dev mode.
func (s *MemoryStore) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categorie[1] = &domain.Categoria{ID: 1, Codice: "U", Descrizione: "Ufficiali"}
	s.categorie[2] = &domain.Categoria{ID: 2, Codice: "SU", Descrizione: "Sottufficiali"}

	s.gradi[1] = &domain.Grado{ID: 1, Codice: "TEN", Descrizione: "Tenente", IDCategoria: 1, Ordinamento: 10}
	s.gradi[2] = &domain.Grado{ID: 2, Codice: "CAP", Descrizione: "Capitano", IDCategoria: 1, Ordinamento: 20}
	s.gradi[3] = &domain.Grado{ID: 3, Codice: "SERG", Descrizione: "Sergente", IDCategoria: 2, Ordinamento: 10}
	s.gradi[4] = &domain.Grado{ID: 4, Codice: "MAR", Descrizione: "Maresciallo", IDCategoria: 2, Ordinamento: 20}

	for i, c := range []*domain.Camera{
		{NumeroCamera: "101", Piano: 1, Edificio: "A", NrPosti: 2, Genere: "M", IDCategoria: 1, Agibile: true},
		{NumeroCamera: "102", Piano: 1, Edificio: "A", NrPosti: 4, Genere: "M", IDCategoria: 2, Agibile: true},
		{NumeroCamera: "201", Piano: 2, Edificio: "A", NrPosti: 1, Genere: "F", IDCategoria: 1, Agibile: true},
	} {
		c.ID = i + 1
		s.camere[c.ID] = c
		s.nextCameraID = c.ID + 1
	}
}

// SetAdmin adds or removes a matricola from the admin allow-list.
func (s *MemoryStore) SetAdmin(matricola string, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if admin {
		s.admins[matricola] = true
	} else {
		delete(s.admins, matricola)
	}
}

// ---- categorie / gradi ----

func (s *MemoryStore) ListCategorie(_ context.Context) ([]*domain.Categoria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Categoria{}
	for _, c := range s.categorie {
		out = append(out, s.categoriaConGradi(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codice < out[j].Codice })
	return out, nil
}

func (s *MemoryStore) GetCategoria(_ context.Context, id int) (*domain.Categoria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categorie[id]
	if !ok {
		return nil, domain.NewNotFoundError("Categoria non trovata")
	}
	return s.categoriaConGradi(c), nil
}

// categoriaConGradi caller holds the lock.
func (s *MemoryStore) categoriaConGradi(c *domain.Categoria) *domain.Categoria {
	cc := *c
	cc.Gradi = []*domain.Grado{}
	for _, g := range s.gradi {
		if g.IDCategoria == c.ID {
			gc := *g
			cc.Gradi = append(cc.Gradi, &gc)
		}
	}
	sort.Slice(cc.Gradi, func(i, j int) bool { return cc.Gradi[i].Ordinamento < cc.Gradi[j].Ordinamento })
	return &cc
}

func (s *MemoryStore) ListGradi(_ context.Context, idCategoria int) ([]*domain.Grado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Grado{}
	for _, g := range s.gradi {
		if idCategoria > 0 && g.IDCategoria != idCategoria {
			continue
		}
		out = append(out, s.gradoConCategoria(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IDCategoria != out[j].IDCategoria {
			return out[i].IDCategoria < out[j].IDCategoria
		}
		return out[i].Ordinamento < out[j].Ordinamento
	})
	return out, nil
}

func (s *MemoryStore) GetGrado(_ context.Context, id int) (*domain.Grado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.gradi[id]
	if !ok {
		return nil, domain.NewNotFoundError("Grado non trovato")
	}
	return s.gradoConCategoria(g), nil
}

// gradoConCategoria caller holds the lock.
func (s *MemoryStore) gradoConCategoria(g *domain.Grado) *domain.Grado {
	gc := *g
	if cat, ok := s.categorie[g.IDCategoria]; ok {
		cc := *cat
		gc.Categoria = &cc
	}
	return &gc
}

// ---- camere ----

func (s *MemoryStore) ListCamere(_ context.Context, f CamereFilter) ([]*domain.CameraConDisponibilita, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.CameraConDisponibilita{}
	for _, c := range s.camere {
		if f.Edificio != "" && c.Edificio != f.Edificio {
			continue
		}
		if f.Piano != nil && c.Piano != *f.Piano {
			continue
		}
		if f.Genere != "" && c.Genere != f.Genere {
			continue
		}
		if f.IDCategoria != nil && c.IDCategoria != *f.IDCategoria {
			continue
		}
		cd := s.cameraConDisponibilita(c)
		if f.SoloDisponibili && cd.PostiLiberi <= 0 {
			continue
		}
		out = append(out, cd)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Edificio != b.Edificio {
			return a.Edificio < b.Edificio
		}
		if a.Piano != b.Piano {
			return a.Piano < b.Piano
		}
		return a.NumeroCamera < b.NumeroCamera
	})
	return out, nil
}

// cameraConDisponibilita caller holds the lock.
func (s *MemoryStore) cameraConDisponibilita(c *domain.Camera) *domain.CameraConDisponibilita {
	cc := s.cameraConCategoria(c)
	cd := &domain.CameraConDisponibilita{
		Camera:       *cc,
		Assegnazioni: s.assegnazioniAttivePerCamera(c.ID),
	}
	cd.PostiOccupati = len(cd.Assegnazioni)
	cd.PostiLiberi = c.NrPosti - cd.PostiOccupati
	cd.Stato = domain.StatoOccupazione(cd.PostiOccupati, c.NrPosti)
	return cd
}

// cameraConCategoria caller holds the lock.
func (s *MemoryStore) cameraConCategoria(c *domain.Camera) *domain.Camera {
	cc := *c
	if cat, ok := s.categorie[c.IDCategoria]; ok {
		catCopy := *cat
		cc.Categoria = &catCopy
	}
	return &cc
}

// assegnazioniAttivePerCamera caller holds the lock.
func (s *MemoryStore) assegnazioniAttivePerCamera(idCamera int) []*domain.Assegnazione {
	out := []*domain.Assegnazione{}
	for _, a := range s.assegn {
		if a.IDCamera != idCamera || !a.Attiva() {
			continue
		}
		ac := *a
		if al, ok := s.alloggiati[a.MatricolaAlloggiato]; ok {
			ac.Alloggiato = s.alloggiatoConGrado(al)
		}
		out = append(out, &ac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) GetCamera(_ context.Context, id int) (*domain.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.camere[id]
	if !ok {
		return nil, domain.NewNotFoundError("Camera non trovata")
	}
	return s.cameraConCategoria(c), nil
}

func (s *MemoryStore) GetCameraByNumero(_ context.Context, numero string) (*domain.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.camere {
		if c.NumeroCamera == numero {
			return s.cameraConCategoria(c), nil
		}
	}
	return nil, domain.NewNotFoundError("Camera non trovata")
}

func (s *MemoryStore) GetOccupazione(_ context.Context, id int) (*domain.CameraOccupazione, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.camere[id]
	if !ok {
		return nil, domain.NewNotFoundError("Camera non trovata")
	}
	attive := s.assegnazioniAttivePerCamera(id)
	occ := &domain.CameraOccupazione{
		Camera:        s.cameraConCategoria(c),
		PostiTotali:   c.NrPosti,
		PostiOccupati: len(attive),
		PostiLiberi:   c.NrPosti - len(attive),
		Stato:         domain.StatoOccupazione(len(attive), c.NrPosti),
		Alloggiati:    attive,
	}
	return occ, nil
}

func (s *MemoryStore) CreateCamera(_ context.Context, c *domain.Camera) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ex := range s.camere {
		if ex.NumeroCamera == c.NumeroCamera {
			return 0, &domain.ConflictError{Reason: fmt.Sprintf("camera %s già esistente", c.NumeroCamera)}
		}
	}
	cc := *c
	cc.ID = s.nextCameraID
	s.nextCameraID++
	s.camere[cc.ID] = &cc
	return cc.ID, nil
}

func (s *MemoryStore) UpdateCamera(_ context.Context, c *domain.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.camere[c.ID]; !ok {
		return domain.NewNotFoundError("Camera non trovata")
	}
	if occupati := s.countAttiveLocked(c.ID); c.NrPosti < occupati {
		return domain.NewValidationError(
			fmt.Sprintf("Impossibile ridurre i posti a %d. Ci sono %d alloggiati assegnati", c.NrPosti, occupati))
	}
	cc := *c
	cc.Categoria = nil
	s.camere[c.ID] = &cc
	return nil
}

// countAttiveLocked caller holds the lock.
func (s *MemoryStore) countAttiveLocked(idCamera int) int {
	n := 0
	for _, a := range s.assegn {
		if a.IDCamera == idCamera && a.Attiva() {
			n++
		}
	}
	return n
}

// ---- alloggiati ----

func (s *MemoryStore) ListAlloggiati(_ context.Context, f AlloggiatiFilter) ([]*domain.AlloggiatoConCamera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.AlloggiatoConCamera{}
	for _, al := range s.alloggiati {
		if f.IDGrado != nil && al.IDGrado != *f.IDGrado {
			continue
		}
		if f.IDCategoria != nil {
			g, ok := s.gradi[al.IDGrado]
			if !ok || g.IDCategoria != *f.IDCategoria {
				continue
			}
		}
		if f.Cognome != "" && !strings.Contains(strings.ToLower(al.Cognome), strings.ToLower(f.Cognome)) {
			continue
		}
		if f.Reparto != "" && !strings.Contains(strings.ToLower(al.DescrizioneReparto), strings.ToLower(f.Reparto)) {
			continue
		}
		ac := s.alloggiatoConCameraLocked(al)
		if f.ConCamera && !ac.HaCamera {
			continue
		}
		if f.SenzaCamera && ac.HaCamera {
			continue
		}
		out = append(out, ac)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cognome != out[j].Cognome {
			return out[i].Cognome < out[j].Cognome
		}
		return out[i].Nome < out[j].Nome
	})
	return out, nil
}

// alloggiatoConGrado caller holds the lock.
func (s *MemoryStore) alloggiatoConGrado(al *domain.Alloggiato) *domain.Alloggiato {
	ac := *al
	if g, ok := s.gradi[al.IDGrado]; ok {
		ac.Grado = s.gradoConCategoria(g)
	}
	return &ac
}

// alloggiatoConCameraLocked caller holds the lock.
func (s *MemoryStore) alloggiatoConCameraLocked(al *domain.Alloggiato) *domain.AlloggiatoConCamera {
	ac := &domain.AlloggiatoConCamera{Alloggiato: *s.alloggiatoConGrado(al)}
	for _, a := range s.assegn {
		if a.MatricolaAlloggiato == al.Matricola && a.Attiva() {
			if c, ok := s.camere[a.IDCamera]; ok {
				ac.CameraCorrente = s.cameraConCategoria(c)
				ac.HaCamera = true
			}
			break
		}
	}
	return ac
}

func (s *MemoryStore) GetAlloggiato(_ context.Context, matricola string) (*domain.Alloggiato, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	al, ok := s.alloggiati[matricola]
	if !ok {
		return nil, domain.NewNotFoundError("Alloggiato non trovato")
	}
	return s.alloggiatoConGrado(al), nil
}

func (s *MemoryStore) GetAlloggiatoConCamera(_ context.Context, matricola string) (*domain.AlloggiatoConCamera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	al, ok := s.alloggiati[matricola]
	if !ok {
		return nil, domain.NewNotFoundError("Alloggiato non trovato")
	}
	return s.alloggiatoConCameraLocked(al), nil
}

func (s *MemoryStore) CreateAlloggiato(_ context.Context, a *domain.Alloggiato) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alloggiati[a.Matricola]; ok {
		return &domain.ConflictError{Reason: "matricola già registrata"}
	}
	if _, ok := s.gradi[a.IDGrado]; !ok {
		return domain.NewNotFoundError("Grado non trovato")
	}
	ac := *a
	ac.Grado = nil
	s.alloggiati[a.Matricola] = &ac
	return nil
}

func (s *MemoryStore) UpdateAlloggiato(_ context.Context, a *domain.Alloggiato) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alloggiati[a.Matricola]; !ok {
		return domain.NewNotFoundError("Alloggiato non trovato")
	}
	ac := *a
	ac.Grado = nil
	s.alloggiati[a.Matricola] = &ac
	return nil
}

func (s *MemoryStore) DeleteAlloggiato(_ context.Context, matricola string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alloggiati[matricola]; !ok {
		return domain.NewNotFoundError("Alloggiato non trovato")
	}
	for _, a := range s.assegn {
		if a.MatricolaAlloggiato == matricola && a.Attiva() {
			return &domain.ConflictError{Reason: "Impossibile eliminare: l'alloggiato è assegnato a una camera. Rimuoverlo prima dalla camera."}
		}
	}
	delete(s.alloggiati, matricola)
	return nil
}

// ---- assegnazioni ----

func (s *MemoryStore) ListAssegnazioni(_ context.Context, f AssegnazioniFilter) ([]*domain.Assegnazione, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Assegnazione{}
	for _, a := range s.assegn {
		if f.IDCamera != nil && a.IDCamera != *f.IDCamera {
			continue
		}
		if f.Matricola != "" && a.MatricolaAlloggiato != f.Matricola {
			continue
		}
		if f.SoloAttive && !a.Attiva() {
			continue
		}
		out = append(out, s.assegnazioneCompleta(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DataAssegnazione.Equal(out[j].DataAssegnazione) {
			return out[i].DataAssegnazione.After(out[j].DataAssegnazione)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// assegnazioneCompleta caller holds the lock.
func (s *MemoryStore) assegnazioneCompleta(a *domain.Assegnazione) *domain.Assegnazione {
	ac := *a
	if al, ok := s.alloggiati[a.MatricolaAlloggiato]; ok {
		ac.Alloggiato = s.alloggiatoConGrado(al)
	}
	if c, ok := s.camere[a.IDCamera]; ok {
		ac.Camera = s.cameraConCategoria(c)
	}
	return &ac
}

func (s *MemoryStore) GetAssegnazione(_ context.Context, id int) (*domain.Assegnazione, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assegn[id]
	if !ok {
		return nil, domain.NewNotFoundError("Assegnazione non trovata")
	}
	return s.assegnazioneCompleta(a), nil
}

func (s *MemoryStore) GetAssegnazioneAttiva(_ context.Context, matricola string) (*domain.Assegnazione, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.assegn {
		if a.MatricolaAlloggiato == matricola && a.Attiva() {
			return s.assegnazioneCompleta(a), nil
		}
	}
	return nil, domain.NewNotFoundError("L'alloggiato non ha una camera assegnata")
}

func (s *MemoryStore) Assign(_ context.Context, matricola string, idCamera int, dataAssegnazione time.Time, note string) (*domain.Assegnazione, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alloggiati[matricola]; !ok {
		return nil, domain.NewNotFoundError("Alloggiato non trovato")
	}
	c, ok := s.camere[idCamera]
	if !ok {
		return nil, domain.NewNotFoundError("Camera non trovata")
	}
	for _, a := range s.assegn {
		if a.MatricolaAlloggiato == matricola && a.Attiva() {
			return nil, &domain.ConflictError{
				Reason:               "L'alloggiato ha già una camera assegnata",
				ExistingAssignmentID: a.ID,
			}
		}
	}
	occupati := s.countAttiveLocked(idCamera)
	if occupati >= c.NrPosti {
		return nil, &domain.CapacityError{
			NumeroCamera:  c.NumeroCamera,
			PostiTotali:   c.NrPosti,
			PostiOccupati: occupati,
		}
	}
	if !c.Agibile {
		return nil, domain.NewValidationError("Camera non agibile")
	}

	if dataAssegnazione.IsZero() {
		dataAssegnazione = time.Now()
	}
	now := time.Now()
	a := &domain.Assegnazione{
		ID:                  s.nextAssegnID,
		MatricolaAlloggiato: matricola,
		IDCamera:            idCamera,
		DataAssegnazione:    dataAssegnazione,
		Note:                note,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.nextAssegnID++
	s.assegn[a.ID] = a
	return s.assegnazioneCompleta(a), nil
}

func (s *MemoryStore) Move(_ context.Context, matricola string, idCameraDestinazione int, note string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alloggiati[matricola]; !ok {
		return nil, domain.NewNotFoundError("Alloggiato non trovato")
	}
	var corrente *domain.Assegnazione
	for _, a := range s.assegn {
		if a.MatricolaAlloggiato == matricola && a.Attiva() {
			corrente = a
			break
		}
	}
	if corrente == nil {
		return nil, domain.NewNotFoundError("L'alloggiato non ha una camera assegnata")
	}
	if corrente.IDCamera == idCameraDestinazione {
		return nil, domain.NewValidationError("L'alloggiato è già in questa camera")
	}
	dest, ok := s.camere[idCameraDestinazione]
	if !ok {
		return nil, domain.NewNotFoundError("Camera destinazione non trovata")
	}
	occupati := s.countAttiveLocked(idCameraDestinazione)
	if occupati >= dest.NrPosti {
		return nil, &domain.CapacityError{
			NumeroCamera:  dest.NumeroCamera,
			PostiTotali:   dest.NrPosti,
			PostiOccupati: occupati,
		}
	}
	if !dest.Agibile {
		return nil, domain.NewValidationError("Camera non agibile")
	}

	precedente := ""
	if c, ok := s.camere[corrente.IDCamera]; ok {
		precedente = c.NumeroCamera
	}
	delete(s.assegn, corrente.ID)

	if note == "" {
		note = fmt.Sprintf("Spostato da camera %s", precedente)
	}
	now := time.Now()
	a := &domain.Assegnazione{
		ID:                  s.nextAssegnID,
		MatricolaAlloggiato: matricola,
		IDCamera:            idCameraDestinazione,
		DataAssegnazione:    now,
		Note:                note,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.nextAssegnID++
	s.assegn[a.ID] = a

	return &MoveResult{
		CameraPrecedente: precedente,
		CameraNuova:      dest.NumeroCamera,
		Assegnazione:     s.assegnazioneCompleta(a),
	}, nil
}

func (s *MemoryStore) Close(_ context.Context, idAssegnazione int, dataUscita time.Time, note, inseritoDa string) (*domain.StoricoAssegnazione, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assegn[idAssegnazione]
	if !ok {
		return nil, domain.NewNotFoundError("Assegnazione non trovata")
	}
	if !a.Attiva() {
		return nil, &domain.ConflictError{Reason: "L'assegnazione è già stata chiusa"}
	}
	if dataUscita.IsZero() {
		dataUscita = time.Now()
	}
	if dataUscita.Before(a.DataAssegnazione) {
		return nil, domain.NewValidationError("La data di uscita non può essere precedente alla data di entrata")
	}

	al := s.alloggiati[a.MatricolaAlloggiato]
	if al == nil {
		return nil, domain.NewNotFoundError("Alloggiato non trovato")
	}
	grado := ""
	if g, ok := s.gradi[al.IDGrado]; ok {
		grado = g.Descrizione
	}
	c := s.camere[a.IDCamera]
	if c == nil {
		return nil, domain.NewNotFoundError("Camera non trovata")
	}
	if note == "" {
		note = a.Note
	}
	piano := c.Piano
	rec := &domain.StoricoAssegnazione{
		ID:                  s.nextStoricoID,
		MatricolaAlloggiato: a.MatricolaAlloggiato,
		Grado:               grado,
		Cognome:             al.Cognome,
		Nome:                al.Nome,
		IDCamera:            c.ID,
		NumeroCamera:        c.NumeroCamera,
		Edificio:            c.Edificio,
		Piano:               &piano,
		DataEntrata:         a.DataAssegnazione,
		DataUscita:          dataUscita,
		Note:                note,
		InseritoDa:          inseritoDa,
		CreatedAt:           time.Now(),
	}
	s.nextStoricoID++
	s.storico[rec.ID] = rec
	delete(s.assegn, idAssegnazione)

	out := *rec
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, idAssegnazione int) (*DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assegn[idAssegnazione]
	if !ok {
		return nil, domain.NewNotFoundError("Assegnazione non trovata")
	}
	if !a.Attiva() {
		return nil, &domain.ConflictError{Reason: "L'assegnazione è già stata chiusa"}
	}
	numero := ""
	if c, ok := s.camere[a.IDCamera]; ok {
		numero = c.NumeroCamera
	}
	delete(s.assegn, idAssegnazione)
	return &DeleteResult{Matricola: a.MatricolaAlloggiato, NumeroCamera: numero}, nil
}

// ---- storico ----

func (s *MemoryStore) ListStorico(_ context.Context, f StoricoFilter) ([]*domain.StoricoAssegnazione, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.StoricoAssegnazione{}
	for _, rec := range s.storico {
		if f.Matricola != "" && rec.MatricolaAlloggiato != f.Matricola {
			continue
		}
		if f.IDCamera != nil && rec.IDCamera != *f.IDCamera {
			continue
		}
		if f.NumeroCamera != "" && rec.NumeroCamera != f.NumeroCamera {
			continue
		}
		if f.Grado != "" && !strings.Contains(strings.ToLower(rec.Grado), strings.ToLower(f.Grado)) {
			continue
		}
		if f.Edificio != "" && rec.Edificio != f.Edificio {
			continue
		}
		if f.DataEntrataDa != nil && rec.DataEntrata.Before(*f.DataEntrataDa) {
			continue
		}
		if f.DataEntrataA != nil && rec.DataEntrata.After(*f.DataEntrataA) {
			continue
		}
		if f.DataUscitaDa != nil && rec.DataUscita.Before(*f.DataUscitaDa) {
			continue
		}
		if f.DataUscitaA != nil && rec.DataUscita.After(*f.DataUscitaA) {
			continue
		}
		rc := *rec
		out = append(out, &rc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DataUscita.Equal(out[j].DataUscita) {
			return out[i].DataUscita.After(out[j].DataUscita)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetStorico(_ context.Context, id int) (*domain.StoricoAssegnazione, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.storico[id]
	if !ok {
		return nil, domain.NewNotFoundError("Record non trovato nello storico")
	}
	rc := *rec
	return &rc, nil
}

func (s *MemoryStore) DeleteStorico(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.storico[id]; !ok {
		return domain.NewNotFoundError("Record non trovato nello storico")
	}
	delete(s.storico, id)
	return nil
}

// ---- admin ----

func (s *MemoryStore) IsAdmin(_ context.Context, matricole ...string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range matricole {
		if s.admins[m] {
			return true, nil
		}
	}
	return false, nil
}
