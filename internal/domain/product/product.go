package product

import "time"

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Status      Status
	// Colors is normalized at the repository boundary: the store keeps a
	// serialized list, malformed data comes back as an empty slice.
	Colors    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) IsAvailable() bool {
	return p.Status == StatusAvailable
}

func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}
