package entity

import "github.com/google/uuid"

// Package is one priced offer of a vendor service.
type Package struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Features []string `json:"features"`
}

// Service is a vendor listing. The catalog is owned elsewhere and only read here.
type Service struct {
	ID          uuid.UUID `db:"id"`
	VendorID    uuid.UUID `db:"vendor_id"`
	CompanyName string    `db:"company_name"`
	Packages    []Package `db:"packages"`
}

func (s *Service) FindPackage(packageID string) (Package, bool) {
	for _, p := range s.Packages {
		if p.ID == packageID {
			return p, true
		}
	}
	return Package{}, false
}

type VendorContact struct {
	VendorID uuid.UUID `db:"id"`
	Phone    string    `db:"phone"`
	Email    string    `db:"email"`
}
