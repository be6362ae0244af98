package models

// Records holds everything extracted from one source document.
// Each list may be empty.
type Records struct {
	Parcels      []Parcel            `json:"parcels" yaml:"parcels"`
	Persons      []Person            `json:"persons" yaml:"persons"`
	Certificates []Certificate       `json:"certificates" yaml:"certificates"`
	Components   []DocumentComponent `json:"components" yaml:"components"`
}

// Kind names one of the four record kinds.
type Kind string

const (
	KindPerson      Kind = "person"
	KindCertificate Kind = "certificate"
	KindParcel      Kind = "parcel"
	KindComponent   Kind = "document_component"
)

// LoadOrder is the insertion order that keeps foreign keys satisfiable:
// parcels reference persons, components reference certificates.
var LoadOrder = []Kind{KindPerson, KindCertificate, KindParcel, KindComponent}

// Len returns the number of records of the given kind.
func (r *Records) Len(k Kind) int {
	switch k {
	case KindPerson:
		return len(r.Persons)
	case KindCertificate:
		return len(r.Certificates)
	case KindParcel:
		return len(r.Parcels)
	case KindComponent:
		return len(r.Components)
	}
	return 0
}

// StringValue dereferences an optional string, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
