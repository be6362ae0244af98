package extractor

import (
	"github.com/antchfx/xmlquery"
	"github.com/stwalsh4118/cadastre/internal/models"
)

// ExtractPersons reads CaNhanCollection/CaNhan. Only the first identity
// document of each person is kept.
func ExtractPersons(doc *Document) []models.Person {
	var persons []models.Person
	for _, n := range doc.collection("CaNhanCollection", "CaNhan") {
		id := text(n, "caNhanID")
		if id == nil {
			continue
		}

		p := models.Person{
			ID:        id,
			FullName:  text(n, "hoTen"),
			BirthYear: text(n, "namSinh"),
			AddressID: text(n, "diaChiID"),
			Gender:    text(n, "gioiTinh"),
			Version:   text(n, "phienBan"),
		}
		if d := child(child(n, "GiayToTuyThanCollection"), "GiayToTuyThan"); d != nil {
			p.IdentityDocument = models.IdentityDocument{
				DocumentID:       text(d, "giayToTuyThanID"),
				DocumentTypeName: text(d, "tenLoaiGiayToTuyThan"),
				IssueDate:        date(d, "ngayCap"),
				IssuedBy:         text(d, "noiCap"),
				NationalID:       text(d, "maDinhDanhCaNhan"),
				DocumentValid:    boolean(d, "hieuLuc"),
				DocumentNumber:   text(d, "soGiayTo"),
				DocumentTypeCode: text(d, "loaiGiayToTuyThan"),
			}
		}
		persons = append(persons, p)
	}
	return persons
}

// ExtractCertificates reads GiayChungNhanCollection/GiayChungNhan.
func ExtractCertificates(doc *Document) []models.Certificate {
	var certs []models.Certificate
	for _, n := range doc.collection("GiayChungNhanCollection", "GiayChungNhan") {
		id := text(n, "giayChungNhanID")
		if id == nil {
			continue
		}
		certs = append(certs, models.Certificate{
			ID:                  id,
			RegistryNumber:      text(n, "soVaoSo"),
			IssuanceNumber:      text(n, "soPhatHanh"),
			CertificateCode:     text(n, "MaGiayChungNhan"),
			IssuedAt:            timestamp(n, "ngayCap"),
			Barcode:             text(n, "maVach"),
			Signer:              text(n, "nguoiKy"),
			PriorRegistryNumber: text(n, "soVaoSoCu"),
		})
	}
	return certs
}

// ExtractParcels reads ThuaDatCollection/DC_ThuaDat and resolves each
// parcel's owner pair through the usage-right records of the document.
func ExtractParcels(doc *Document) []models.Parcel {
	owners := ownerIndex(doc)

	var parcels []models.Parcel
	for _, n := range doc.collection("ThuaDatCollection", "DC_ThuaDat") {
		id := text(n, "thuaDatID")
		if id == nil {
			continue
		}

		p := models.Parcel{
			ID:                 id,
			AreaCode:           text(n, "maDVHCXa"),
			MapSheetNumber:     text(n, "soHieuToBanDo"),
			PlotNumber:         text(n, "soThuTuThua"),
			Area:               text(n, "dienTich"),
			LegalArea:          text(n, "dienTichPhapLy"),
			AddressID:          text(n, "diaChiID"),
			DataClassification: text(n, "phanLoaiDuLieu"),
			RegistrationStatus: text(n, "trangThaiDangKy"),
			Valid:              boolean(n, "hieuLuc"),
			Version:            text(n, "phienBan"),
		}
		p.SetOwners(owners[*id])
		parcels = append(parcels, p)
	}
	return parcels
}

// ExtractDocumentComponents reads HoSoDangKyDatDaiCollection. Every
// component inherits the identifiers of its case.
func ExtractDocumentComponents(doc *Document) []models.DocumentComponent {
	var components []models.DocumentComponent
	for _, c := range doc.collection("HoSoDangKyDatDaiCollection", "HoSoDangKyDatDai") {
		caseID := text(c, "hoSoDangKySoID")
		certID := text(c, "giayChungNhanID")
		archive := text(c, "maHoSoLuuTru")
		area := text(c, "maDVHCXa")

		parts := child(c, "ThanhPhanHoSoDangKyDatDaiCollection")
		if parts == nil {
			continue
		}
		for _, n := range children(parts, "ThanhPhanHoSoDangKyDatDai") {
			id := text(n, "thanhPhanHoSoID")
			if id == nil {
				continue
			}
			components = append(components, models.DocumentComponent{
				ID:            id,
				CaseID:        caseID,
				CertificateID: certID,
				DocumentType:  text(n, "loaiGiayTo"),
				FileName:      text(n, "tepTin"),
				URL:           text(n, "url"),
				ArchiveCode:   archive,
				AreaCode:      area,
			})
		}
	}
	return components
}

// ComponentURLs returns, for every ThanhPhanHoSoDangKyDatDai anywhere in
// the document, the text of its first url descendant.
func ComponentURLs(doc *Document) []string {
	var urls []string
	for _, n := range xmlquery.Find(doc.root, "//ThanhPhanHoSoDangKyDatDai") {
		u := xmlquery.FindOne(n, ".//url")
		if u == nil {
			continue
		}
		urls = append(urls, u.InnerText())
	}
	return urls
}

// ownerIndex maps parcel id to the owner pair of the first usage right, in
// document order, that names the parcel and a known owner-pair subject.
func ownerIndex(doc *Document) map[string]*models.OwnerPair {
	pairs := make(map[string]*models.OwnerPair)
	for _, n := range doc.collection("VoChongCollection", "VoChong") {
		id := text(n, "voChongID")
		if id == nil {
			continue
		}
		pairs[*id] = &models.OwnerPair{
			ID:        *id,
			WifeID:    text(n, "voID"),
			HusbandID: text(n, "chongID"),
		}
	}

	index := make(map[string]*models.OwnerPair)
	if len(pairs) == 0 {
		return index
	}
	for _, n := range xmlquery.Find(doc.root, "//QuyenSuDungDat") {
		parcelID := text(n, "thuaDatID")
		subjectID := text(n, "doiTuongID")
		if parcelID == nil || subjectID == nil {
			continue
		}
		if _, seen := index[*parcelID]; seen {
			continue
		}
		if pair, ok := pairs[*subjectID]; ok {
			index[*parcelID] = pair
		}
	}
	return index
}
