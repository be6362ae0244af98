package models

// DocumentComponent is one file entry of a registration case. The case
// fields (CaseID, CertificateID, ArchiveCode, AreaCode) are copied from the
// parent HoSoDangKyDatDai element onto every component.
type DocumentComponent struct {
	ID            *string `json:"id" yaml:"id"`
	CaseID        *string `json:"caseId,omitempty" yaml:"case_id,omitempty"`
	CertificateID *string `json:"certificateId,omitempty" yaml:"certificate_id,omitempty"`
	DocumentType  *string `json:"documentType,omitempty" yaml:"document_type,omitempty"`
	FileName      *string `json:"fileName,omitempty" yaml:"file_name,omitempty"`
	URL           *string `json:"url,omitempty" yaml:"url,omitempty"`
	ArchiveCode   *string `json:"archiveCode,omitempty" yaml:"archive_code,omitempty"`
	AreaCode      *string `json:"areaCode,omitempty" yaml:"area_code,omitempty"`
}
