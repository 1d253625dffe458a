package aas

import "time"

// PackageStatus is the lifecycle state of an uploaded AASX package.
// Transitions run only through the import coordinator:
//
//	uploaded/failed -> importing -> imported | failed
type PackageStatus string

const (
	PackageUploaded  PackageStatus = "uploaded"
	PackageImporting PackageStatus = "importing"
	PackageImported  PackageStatus = "imported"
	PackageFailed    PackageStatus = "failed"
)

// Valid reports whether the status is a known lifecycle state.
func (s PackageStatus) Valid() bool {
	switch s {
	case PackageUploaded, PackageImporting, PackageImported, PackageFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether an import attempt has reached a resting state.
// A package must never stay importing forever; the coordinator's lock
// timeout reclaims stuck rows.
func (s PackageStatus) Terminal() bool {
	return s != PackageImporting
}

// CanStartImport reports whether an import may claim the package.
func (s PackageStatus) CanStartImport() bool {
	switch s {
	case PackageUploaded, PackageFailed, PackageImported:
		return true
	default:
		return false
	}
}

// Package is an uploaded AASX container and its import bookkeeping.
type Package struct {
	ID            string        `json:"packageId"`
	Filename      string        `json:"filename"`
	SizeBytes     int64         `json:"sizeBytes"`
	Status        PackageStatus `json:"status"`
	ShellCount    int           `json:"shellCount"`
	SubmodelCount int           `json:"submodelCount"`
	ConceptCount  int           `json:"conceptCount"`
	CreatedAt     time.Time     `json:"createdAt"`
}
