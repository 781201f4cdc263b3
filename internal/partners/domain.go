// Package partners holds the partner-organization and training-center
// reference data that every tenant-scoped check resolves against.
package partners

import "time"

// Partner is an implementing NGO partner organization.
type Partner struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Center is a training center operated by a partner.
type Center struct {
	ID        int64     `json:"id"`
	PartnerID int64     `json:"partner_id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
