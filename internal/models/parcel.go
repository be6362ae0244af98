package models

// Parcel is a land plot extracted from a DC_ThuaDat element.
// All fields are optional: a missing or empty source element is nil.
// Areas and integer codes stay as text until load time.
type Parcel struct {
	ID                 *string `json:"id" yaml:"id"`
	AreaCode           *string `json:"areaCode,omitempty" yaml:"area_code,omitempty"`
	MapSheetNumber     *string `json:"mapSheetNumber,omitempty" yaml:"map_sheet_number,omitempty"`
	PlotNumber         *string `json:"plotNumber,omitempty" yaml:"plot_number,omitempty"`
	Area               *string `json:"area,omitempty" yaml:"area,omitempty"`
	LegalArea          *string `json:"legalArea,omitempty" yaml:"legal_area,omitempty"`
	AddressID          *string `json:"addressId,omitempty" yaml:"address_id,omitempty"`
	OwnerPairID        *string `json:"ownerPairId,omitempty" yaml:"owner_pair_id,omitempty"`
	WifeID             *string `json:"wifeId,omitempty" yaml:"wife_id,omitempty"`
	HusbandID          *string `json:"husbandId,omitempty" yaml:"husband_id,omitempty"`
	DataClassification *string `json:"dataClassification,omitempty" yaml:"data_classification,omitempty"`
	RegistrationStatus *string `json:"registrationStatus,omitempty" yaml:"registration_status,omitempty"`
	Valid              *bool   `json:"valid,omitempty" yaml:"valid,omitempty"`
	Version            *string `json:"version,omitempty" yaml:"version,omitempty"`
}

// OwnerPair links the two persons that jointly own a parcel.
type OwnerPair struct {
	ID        string
	WifeID    *string
	HusbandID *string
}

// SetOwners copies the owner pair onto the parcel. A nil pair clears all
// three owner fields.
func (p *Parcel) SetOwners(pair *OwnerPair) {
	if pair == nil {
		p.OwnerPairID, p.WifeID, p.HusbandID = nil, nil, nil
		return
	}
	id := pair.ID
	p.OwnerPairID = &id
	p.WifeID = pair.WifeID
	p.HusbandID = pair.HusbandID
}
