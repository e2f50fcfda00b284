package surat

import (
	"errors"
	"time"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Jenis distinguishes incoming from outgoing correspondence.
type Jenis string

const (
	JenisMasuk  Jenis = "MASUK"
	JenisKeluar Jenis = "KELUAR"
)

// Status tracks handling progress of a letter.
type Status string

const (
	StatusBaru     Status = "BARU"
	StatusDiproses Status = "DIPROSES"
	StatusSelesai  Status = "SELESAI"
)

var statusRank = map[Status]int{
	StatusBaru:     0,
	StatusDiproses: 1,
	StatusSelesai:  2,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Predecessors lists the statuses a letter may hold when moving to s.
func (s Status) Predecessors() []Status {
	to, ok := statusRank[s]
	if !ok {
		return nil
	}
	var out []Status
	for _, candidate := range []Status{StatusBaru, StatusDiproses, StatusSelesai} {
		if statusRank[candidate] < to {
			out = append(out, candidate)
		}
	}
	return out
}

// CanTransitionTo reports whether next lies strictly after s.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > from
}

var (
	ErrSuratNotFound     = errors.New("surat tidak dijumpai")
	ErrDuplicateRujukan  = errors.New("nombor rujukan telah digunakan")
	ErrInvalidStatus     = errors.New("status surat tidak sah")
	ErrInvalidTransition = errors.New("status surat hanya boleh bergerak ke hadapan")
	ErrInvalidDate       = errors.New("tarikh mesti dalam format YYYY-MM-DD")
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Surat is a registered letter.
type Surat struct {
	ID          int64     `json:"id"`
	Jenis       Jenis     `json:"jenis"`
	NoRujukan   string    `json:"no_rujukan"`
	Tarikh      time.Time `json:"tarikh"`
	Pihak       string    `json:"pihak"`
	Perkara     string    `json:"perkara"`
	Kategori    string    `json:"kategori"`
	Status      Status    `json:"status"`
	LampiranURL string    `json:"lampiran_url,omitempty"`
	Catatan     string    `json:"catatan,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input carries the editable fields of a letter. Pihak is the sender of
// incoming mail and the recipient of outgoing mail.
type Input struct {
	Jenis       Jenis  `json:"jenis" validate:"required,oneof=MASUK KELUAR"`
	NoRujukan   string `json:"no_rujukan" validate:"required,max=100"`
	Tarikh      string `json:"tarikh" validate:"required"`
	Pihak       string `json:"pihak" validate:"required,max=200"`
	Perkara     string `json:"perkara" validate:"required,max=500"`
	Kategori    string `json:"kategori" validate:"max=100"`
	LampiranURL string `json:"lampiran_url" validate:"omitempty,url"`
	Catatan     string `json:"catatan" validate:"max=1000"`
}

// Record is a validated Input ready for storage.
type Record struct {
	Jenis       Jenis
	NoRujukan   string
	Tarikh      time.Time
	Pihak       string
	Perkara     string
	Kategori    string
	LampiranURL string
	Catatan     string
	CreatedBy   int64
}

// StatusInput requests a status transition.
type StatusInput struct {
	Status Status `json:"status" validate:"required"`
}

// ListFilters narrows a listing. Zero values do not filter.
type ListFilters struct {
	Jenis  Jenis
	Status Status
	Search string
	From   *time.Time
	To     *time.Time
	Page   shared.PageRequest
}

// Counts is the number of letters per Jenis in a period.
type Counts map[Jenis]int
