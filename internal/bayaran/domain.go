package bayaran

import (
	"errors"
	"time"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Status is the lifecycle state of a payment.
type Status string

const (
	StatusTertunda   Status = "TERTUNDA"
	StatusDiluluskan Status = "DILULUSKAN"
	StatusDibayar    Status = "DIBAYAR"
	StatusDibatalkan Status = "DIBATALKAN"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusTertunda, StatusDiluluskan, StatusDibayar, StatusDibatalkan}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

var (
	ErrBayaranNotFound   = errors.New("rekod bayaran tidak dijumpai")
	ErrDuplicateInvois   = errors.New("nombor invois telah direkodkan")
	ErrInvalidTransition = errors.New("status bayaran tidak membenarkan tindakan ini")
	ErrInvalidStatus     = errors.New("status bayaran tidak sah")
	ErrInvalidDate       = errors.New("tarikh mesti dalam format YYYY-MM-DD")
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Bayaran is a contractor payment. Amounts are held in sen.
type Bayaran struct {
	ID           int64      `json:"id"`
	Kontraktor   string     `json:"kontraktor"`
	NoInvois     string     `json:"no_invois"`
	NoBaucar     string     `json:"no_baucar,omitempty"`
	Projek       string     `json:"projek,omitempty"`
	AmaunSen     int64      `json:"amaun_sen"`
	Amaun        string     `json:"amaun"`
	TarikhInvois time.Time  `json:"tarikh_invois"`
	TarikhBayar  *time.Time `json:"tarikh_bayar,omitempty"`
	Status       Status     `json:"status"`
	Catatan      string     `json:"catatan,omitempty"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Input carries the editable fields of a payment.
type Input struct {
	Kontraktor   string `json:"kontraktor" validate:"required,max=200"`
	NoInvois     string `json:"no_invois" validate:"required,max=100"`
	NoBaucar     string `json:"no_baucar" validate:"max=100"`
	Projek       string `json:"projek" validate:"max=200"`
	AmaunSen     int64  `json:"amaun_sen" validate:"gt=0"`
	TarikhInvois string `json:"tarikh_invois" validate:"required"`
	Catatan      string `json:"catatan" validate:"max=1000"`
}

// Record is a validated Input ready for storage.
type Record struct {
	Kontraktor   string
	NoInvois     string
	NoBaucar     string
	Projek       string
	AmaunSen     int64
	TarikhInvois time.Time
	Catatan      string
	CreatedBy    int64
}

// PayInput marks a payment as paid. An empty date means today.
type PayInput struct {
	TarikhBayar string `json:"tarikh_bayar"`
	NoBaucar    string `json:"no_baucar" validate:"max=100"`
}

// ListFilters narrows a listing. Zero values do not filter.
type ListFilters struct {
	Status Status
	Search string
	From   *time.Time
	To     *time.Time
	Page   shared.PageRequest
}

// Total aggregates payments sharing a status.
type Total struct {
	Count    int    `json:"count"`
	AmaunSen int64  `json:"amaun_sen"`
	Amaun    string `json:"amaun"`
}

// Summary holds totals per status.
type Summary map[Status]Total
