package models

import "time"

// Certificate is a land-use right certificate (GiayChungNhan).
type Certificate struct {
	ID                  *string    `json:"id" yaml:"id"`
	RegistryNumber      *string    `json:"registryNumber,omitempty" yaml:"registry_number,omitempty"`
	IssuanceNumber      *string    `json:"issuanceNumber,omitempty" yaml:"issuance_number,omitempty"`
	CertificateCode     *string    `json:"certificateCode,omitempty" yaml:"certificate_code,omitempty"`
	IssuedAt            *time.Time `json:"issuedAt,omitempty" yaml:"issued_at,omitempty"`
	Barcode             *string    `json:"barcode,omitempty" yaml:"barcode,omitempty"`
	Signer              *string    `json:"signer,omitempty" yaml:"signer,omitempty"`
	PriorRegistryNumber *string    `json:"priorRegistryNumber,omitempty" yaml:"prior_registry_number,omitempty"`
}
