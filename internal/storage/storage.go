package storage

import (
	"context"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	apperrors "github.com/industrialdt/aashub/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrImportInFlight indicates an import already holds the package. At most
// one import per package may run at a time.
var ErrImportInFlight = apperrors.New(apperrors.CodeImportInFlight, "import already in flight for package")

// ErrDeleteImporting indicates a delete raced a running import. Callers
// must wait for the import to reach a terminal state.
var ErrDeleteImporting = apperrors.New(apperrors.CodeDeleteImporting, "package is importing")

// PackageRecord captures an uploaded package and its import bookkeeping.
type PackageRecord struct {
	ID            string
	Filename      string
	SizeBytes     int64
	Status        aas.PackageStatus
	ShellCount    int
	SubmodelCount int
	ConceptCount  int
	CreatedAt     time.Time
	// ImportStartedAt is set while an import holds the package; it drives
	// the liveness takeover of stuck imports.
	ImportStartedAt *time.Time
}

// Package converts the record into its API shape.
func (r PackageRecord) Package() aas.Package {
	return aas.Package{
		ID:            r.ID,
		Filename:      r.Filename,
		SizeBytes:     r.SizeBytes,
		Status:        r.Status,
		ShellCount:    r.ShellCount,
		SubmodelCount: r.SubmodelCount,
		ConceptCount:  r.ConceptCount,
		CreatedAt:     r.CreatedAt,
	}
}

// ShellRecord is a stored shell plus its provenance.
type ShellRecord struct {
	Shell     aas.Shell
	PackageID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubmodelRecord is a stored submodel plus its provenance.
type SubmodelRecord struct {
	Submodel  aas.Submodel
	PackageID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConceptRecord is a stored concept description plus its provenance.
type ConceptRecord struct {
	Concept   aas.ConceptDescription
	PackageID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PackagePage describes one page of package records.
type PackagePage struct {
	Packages      []PackageRecord
	NextPageToken string
}

// ShellPage describes one page of shell records.
type ShellPage struct {
	Shells        []ShellRecord
	NextPageToken string
}

// SubmodelPage describes one page of submodel records.
type SubmodelPage struct {
	Submodels     []SubmodelRecord
	NextPageToken string
}

// ConceptPage describes one page of concept description records.
type ConceptPage struct {
	Concepts      []ConceptRecord
	NextPageToken string
}

// ShellDescriptorPage describes one page of registry shell descriptors.
type ShellDescriptorPage struct {
	Descriptors   []aas.ShellDescriptor
	NextPageToken string
}

// SubmodelDescriptorPage describes one page of registry submodel descriptors.
type SubmodelDescriptorPage struct {
	Descriptors   []aas.SubmodelDescriptor
	NextPageToken string
}

// ImportApply is the unit of work the import coordinator hands to storage:
// the full decoded environment of one package, applied atomically.
type ImportApply struct {
	PackageID   string
	Filename    string
	Environment aas.Environment
	AppliedAt   time.Time
}

// ImportResult reports what an applied import changed. Created entities
// count toward net repository growth; updated entities do not.
type ImportResult struct {
	CreatedShells    int
	UpdatedShells    int
	CreatedSubmodels int
	UpdatedSubmodels int
	CreatedConcepts  int
	UpdatedConcepts  int
}

// Created totals the net-new entities of an import.
func (r ImportResult) Created() int {
	return r.CreatedShells + r.CreatedSubmodels + r.CreatedConcepts
}

// Updated totals the overwritten entities of an import.
func (r ImportResult) Updated() int {
	return r.UpdatedShells + r.UpdatedSubmodels + r.UpdatedConcepts
}

// DeleteResult reports what a cascading package delete removed.
type DeleteResult struct {
	RemovedShells    int
	RemovedSubmodels int
	RemovedConcepts  int
}

// StatsCounters are the incrementally maintained aggregate counters.
// They are derived state: at any quiescent point they must equal a full
// recount of the underlying tables.
type StatsCounters struct {
	Shells              int64
	Submodels           int64
	ConceptDescriptions int64
	ShellDescriptors    int64
	SubmodelDescriptors int64
	Packages            int64
	BlobBytes           int64
}

// TodayCounts are read-time aggregates over the current UTC day.
type TodayCounts struct {
	PackagesUploaded int64
	PackagesImported int64
}

// PackageStore owns uploaded package blobs and their lifecycle records.
type PackageStore interface {
	// PutPackage persists the record and blob durably; no partial record
	// is visible on failure.
	PutPackage(ctx context.Context, record PackageRecord, blob []byte) error
	GetPackage(ctx context.Context, id string) (PackageRecord, error)
	GetPackageBlob(ctx context.Context, id string) ([]byte, error)
	// ListPackages returns a page ordered by created_at descending; the
	// token encodes the last-seen (created_at, id) pair.
	ListPackages(ctx context.Context, pageSize int, pageToken string) (PackagePage, error)
}

// EntityStore reads stored entities. Writes run only through ImportStore
// so every mutation stays inside an import or delete transaction.
type EntityStore interface {
	GetShell(ctx context.Context, id string) (ShellRecord, error)
	GetSubmodel(ctx context.Context, id string) (SubmodelRecord, error)
	GetConcept(ctx context.Context, id string) (ConceptRecord, error)
	ListShells(ctx context.Context, pageSize int, pageToken string) (ShellPage, error)
	ListSubmodels(ctx context.Context, pageSize int, pageToken string) (SubmodelPage, error)
	ListConcepts(ctx context.Context, pageSize int, pageToken string) (ConceptPage, error)
}

// RegistryStore reads the descriptor projection. Descriptors have no
// independent write path: they change only when their entity changes.
type RegistryStore interface {
	ListShellDescriptors(ctx context.Context, pageSize int, pageToken string) (ShellDescriptorPage, error)
	ListSubmodelDescriptors(ctx context.Context, pageSize int, pageToken string) (SubmodelDescriptorPage, error)
}

// ImportStore is the import coordinator's contract: claim, apply, fail,
// and cascade-delete, with apply and delete each one atomic transaction.
type ImportStore interface {
	// ClaimImport transitions the package into importing if no fresh
	// import holds it. Imports whose ImportStartedAt predates staleBefore
	// are considered abandoned and may be reclaimed. Returns
	// ErrImportInFlight when another import holds the package.
	ClaimImport(ctx context.Context, packageID string, startedAt, staleBefore time.Time) (PackageRecord, error)
	// FailImport marks the package failed, releases the claim, and
	// appends an import activity entry carrying the failure detail.
	FailImport(ctx context.Context, packageID, detail string, at time.Time) error
	// ApplyImport merges the environment, refreshes descriptors, appends
	// activity entries, updates counters, and marks the package imported,
	// all in one transaction. On error nothing is applied.
	ApplyImport(ctx context.Context, apply ImportApply) (ImportResult, error)
	// DeletePackage removes the package and cascade-retracts the entities
	// whose provenance still points at it, in one transaction. Returns
	// ErrDeleteImporting while a live import holds the package; a claim
	// whose ImportStartedAt predates staleBefore is considered abandoned
	// and the delete proceeds.
	DeletePackage(ctx context.Context, packageID string, at, staleBefore time.Time) (DeleteResult, error)
}

// ActivityStore owns the append-only audit trail.
type ActivityStore interface {
	AppendActivity(ctx context.Context, activity aas.Activity) error
	// ListActivities returns the newest entries first plus the total
	// number of entries in the log.
	ListActivities(ctx context.Context, limit int) ([]aas.Activity, int64, error)
}

// StatsStore reads aggregate counters.
type StatsStore interface {
	// Counters returns the incrementally maintained counter row.
	Counters(ctx context.Context) (StatsCounters, error)
	// Recount recomputes the counters from the underlying tables.
	Recount(ctx context.Context) (StatsCounters, error)
	TodayCounts(ctx context.Context, since time.Time) (TodayCounts, error)
}

// Store is the full persistence surface of the repository service.
type Store interface {
	PackageStore
	EntityStore
	RegistryStore
	ImportStore
	ActivityStore
	StatsStore
	Ping(ctx context.Context) error
	Close() error
}
