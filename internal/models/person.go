package models

import "time"

// Person is an individual extracted from a CaNhan element, flattened with
// the first identity document listed for them.
type Person struct {
	ID        *string `json:"id" yaml:"id"`
	FullName  *string `json:"fullName,omitempty" yaml:"full_name,omitempty"`
	BirthYear *string `json:"birthYear,omitempty" yaml:"birth_year,omitempty"`
	AddressID *string `json:"addressId,omitempty" yaml:"address_id,omitempty"`
	Gender    *string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Version   *string `json:"version,omitempty" yaml:"version,omitempty"`

	IdentityDocument `yaml:",inline"`
}

// IdentityDocument is the embedded identity paper of a person.
type IdentityDocument struct {
	DocumentID       *string    `json:"documentId,omitempty" yaml:"document_id,omitempty"`
	DocumentTypeName *string    `json:"documentTypeName,omitempty" yaml:"document_type_name,omitempty"`
	IssueDate        *time.Time `json:"issueDate,omitempty" yaml:"issue_date,omitempty"`
	IssuedBy         *string    `json:"issuedBy,omitempty" yaml:"issued_by,omitempty"`
	NationalID       *string    `json:"nationalId,omitempty" yaml:"national_id,omitempty"`
	DocumentValid    *bool      `json:"documentValid,omitempty" yaml:"document_valid,omitempty"`
	DocumentNumber   *string    `json:"documentNumber,omitempty" yaml:"document_number,omitempty"`
	DocumentTypeCode *string    `json:"documentTypeCode,omitempty" yaml:"document_type_code,omitempty"`
}
