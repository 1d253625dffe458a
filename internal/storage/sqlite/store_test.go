package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/industrialdt/aashub/internal/aas"
	"github.com/industrialdt/aashub/internal/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetPackageRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	input := storage.PackageRecord{
		ID:        "pkg-1",
		Filename:  "plant.aasx",
		SizeBytes: 4,
		Status:    aas.PackageUploaded,
		CreatedAt: now,
	}
	if err := store.PutPackage(context.Background(), input, []byte("blob")); err != nil {
		t.Fatalf("put package: %v", err)
	}

	got, err := store.GetPackage(context.Background(), "pkg-1")
	if err != nil {
		t.Fatalf("get package: %v", err)
	}
	if got.Filename != input.Filename {
		t.Fatalf("filename = %q, want %q", got.Filename, input.Filename)
	}
	if got.Status != aas.PackageUploaded {
		t.Fatalf("status = %q, want %q", got.Status, aas.PackageUploaded)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
	if got.ImportStartedAt != nil {
		t.Fatalf("import_started_at = %v, want nil", got.ImportStartedAt)
	}

	blob, err := store.GetPackageBlob(context.Background(), "pkg-1")
	if err != nil {
		t.Fatalf("get package blob: %v", err)
	}
	if string(blob) != "blob" {
		t.Fatalf("blob = %q, want %q", blob, "blob")
	}
}

func TestGetPackageMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetPackage(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing package error = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetPackageBlob(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing blob error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListPackagesPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.August, 20, 11, 0, 0, 0, time.UTC)
	for i, id := range []string{"pkg-a", "pkg-b", "pkg-c"} {
		if err := store.PutPackage(context.Background(), storage.PackageRecord{
			ID:        id,
			Filename:  id + ".aasx",
			Status:    aas.PackageUploaded,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}, []byte("blob")); err != nil {
			t.Fatalf("put package %s: %v", id, err)
		}
	}

	pageOne, err := store.ListPackages(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("list page one: %v", err)
	}
	if len(pageOne.Packages) != 2 {
		t.Fatalf("page one len = %d, want 2", len(pageOne.Packages))
	}
	if pageOne.Packages[0].ID != "pkg-c" || pageOne.Packages[1].ID != "pkg-b" {
		t.Fatalf("page one order = %s, %s, want pkg-c, pkg-b", pageOne.Packages[0].ID, pageOne.Packages[1].ID)
	}
	if pageOne.NextPageToken == "" {
		t.Fatal("expected page one next token")
	}

	pageTwo, err := store.ListPackages(context.Background(), 2, pageOne.NextPageToken)
	if err != nil {
		t.Fatalf("list page two: %v", err)
	}
	if len(pageTwo.Packages) != 1 {
		t.Fatalf("page two len = %d, want 1", len(pageTwo.Packages))
	}
	if pageTwo.Packages[0].ID != "pkg-a" {
		t.Fatalf("page two id = %s, want pkg-a", pageTwo.Packages[0].ID)
	}
	if pageTwo.NextPageToken != "" {
		t.Fatalf("page two next token = %q, want empty", pageTwo.NextPageToken)
	}
}

func TestListPackagesRejectsForeignToken(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedImportedPackage(t, store, "pkg-1", aas.Environment{
		Shells: []aas.Shell{{ID: "shell-1"}, {ID: "shell-2"}},
	})

	shells, err := store.ListShells(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("list shells: %v", err)
	}
	if shells.NextPageToken == "" {
		t.Fatal("expected shells next token")
	}

	if _, err := store.ListPackages(context.Background(), 1, shells.NextPageToken); err == nil {
		t.Fatal("expected foreign token rejection")
	}
}

func TestListShellsPaginates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedImportedPackage(t, store, "pkg-1", aas.Environment{
		Shells: []aas.Shell{
			{ID: "shell-a", IDShort: "Motor"},
			{ID: "shell-b", IDShort: "Pump"},
			{ID: "shell-c", IDShort: "Valve"},
		},
	})

	pageOne, err := store.ListShells(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("list shells page one: %v", err)
	}
	if len(pageOne.Shells) != 2 {
		t.Fatalf("page one len = %d, want 2", len(pageOne.Shells))
	}
	if pageOne.Shells[0].Shell.ID != "shell-a" {
		t.Fatalf("page one first id = %s, want shell-a", pageOne.Shells[0].Shell.ID)
	}

	pageTwo, err := store.ListShells(context.Background(), 2, pageOne.NextPageToken)
	if err != nil {
		t.Fatalf("list shells page two: %v", err)
	}
	if len(pageTwo.Shells) != 1 {
		t.Fatalf("page two len = %d, want 1", len(pageTwo.Shells))
	}
	if pageTwo.Shells[0].Shell.ID != "shell-c" {
		t.Fatalf("page two id = %s, want shell-c", pageTwo.Shells[0].Shell.ID)
	}
	if pageTwo.NextPageToken != "" {
		t.Fatalf("page two next token = %q, want empty", pageTwo.NextPageToken)
	}
}

func TestGetEntitiesRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedImportedPackage(t, store, "pkg-1", aas.Environment{
		Shells: []aas.Shell{{
			ID:      "shell-1",
			IDShort: "Robot",
			AssetInformation: aas.AssetInformation{
				AssetKind:     aas.AssetKindInstance,
				GlobalAssetID: "asset-1",
			},
		}},
		Submodels: []aas.Submodel{{
			ID:         "sm-1",
			IDShort:    "Nameplate",
			SemanticID: &aas.Reference{Keys: []aas.Key{{Value: "sem-1"}}},
			Kind:       aas.SubmodelKindInstance,
		}},
		ConceptDescriptions: []aas.ConceptDescription{{ID: "cd-1", IDShort: "Torque"}},
	})

	shell, err := store.GetShell(context.Background(), "shell-1")
	if err != nil {
		t.Fatalf("get shell: %v", err)
	}
	if shell.Shell.AssetInformation.AssetKind != aas.AssetKindInstance {
		t.Fatalf("asset kind = %q, want %q", shell.Shell.AssetInformation.AssetKind, aas.AssetKindInstance)
	}
	if shell.PackageID != "pkg-1" {
		t.Fatalf("shell package_id = %q, want pkg-1", shell.PackageID)
	}

	submodel, err := store.GetSubmodel(context.Background(), "sm-1")
	if err != nil {
		t.Fatalf("get submodel: %v", err)
	}
	if submodel.Submodel.SemanticID.First() != "sem-1" {
		t.Fatalf("semantic id = %q, want sem-1", submodel.Submodel.SemanticID.First())
	}

	concept, err := store.GetConcept(context.Background(), "cd-1")
	if err != nil {
		t.Fatalf("get concept: %v", err)
	}
	if concept.Concept.IDShort != "Torque" {
		t.Fatalf("concept id_short = %q, want Torque", concept.Concept.IDShort)
	}

	if _, err := store.GetShell(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing shell error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListDescriptorsFollowEntities(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedImportedPackage(t, store, "pkg-1", aas.Environment{
		Shells: []aas.Shell{{
			ID: "shell-1",
			AssetInformation: aas.AssetInformation{
				AssetKind:     aas.AssetKindType,
				GlobalAssetID: "asset-9",
			},
		}},
		Submodels: []aas.Submodel{{
			ID:         "sm-1",
			SemanticID: &aas.Reference{Keys: []aas.Key{{Value: "sem-9"}}},
		}},
	})

	shells, err := store.ListShellDescriptors(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("list shell descriptors: %v", err)
	}
	if len(shells.Descriptors) != 1 {
		t.Fatalf("shell descriptors len = %d, want 1", len(shells.Descriptors))
	}
	if shells.Descriptors[0].GlobalAssetID != "asset-9" {
		t.Fatalf("global asset id = %q, want asset-9", shells.Descriptors[0].GlobalAssetID)
	}

	submodels, err := store.ListSubmodelDescriptors(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("list submodel descriptors: %v", err)
	}
	if len(submodels.Descriptors) != 1 {
		t.Fatalf("submodel descriptors len = %d, want 1", len(submodels.Descriptors))
	}
	if submodels.Descriptors[0].SemanticID != "sem-9" {
		t.Fatalf("semantic id = %q, want sem-9", submodels.Descriptors[0].SemanticID)
	}
}

func TestAppendListActivities(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if err := store.AppendActivity(context.Background(), aas.Activity{
			Type:       aas.ActivityPackage,
			Action:     aas.ActionCreate,
			Identifier: id,
			Timestamp:  base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("append activity %s: %v", id, err)
		}
	}

	activities, total, err := store.ListActivities(context.Background(), 2)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(activities) != 2 {
		t.Fatalf("activities len = %d, want 2", len(activities))
	}
	if activities[0].Identifier != "third" {
		t.Fatalf("newest identifier = %q, want third", activities[0].Identifier)
	}
	if activities[1].Identifier != "second" {
		t.Fatalf("second identifier = %q, want second", activities[1].Identifier)
	}
}

func openTempStore(t *testing.T, opts ...OpenOption) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "aashub.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

// seedImportedPackage uploads, claims, and applies a package in one step.
func seedImportedPackage(t *testing.T, store *Store, packageID string, env aas.Environment) {
	t.Helper()

	now := time.Date(2026, time.August, 20, 9, 0, 0, 0, time.UTC)
	if err := store.PutPackage(context.Background(), storage.PackageRecord{
		ID:        packageID,
		Filename:  packageID + ".aasx",
		SizeBytes: 16,
		Status:    aas.PackageUploaded,
		CreatedAt: now,
	}, []byte("container-bytes!")); err != nil {
		t.Fatalf("put package %s: %v", packageID, err)
	}
	if _, err := store.ClaimImport(context.Background(), packageID, now, now.Add(-time.Hour)); err != nil {
		t.Fatalf("claim import %s: %v", packageID, err)
	}
	if _, err := store.ApplyImport(context.Background(), storage.ImportApply{
		PackageID:   packageID,
		Filename:    packageID + ".aasx",
		Environment: env,
		AppliedAt:   now,
	}); err != nil {
		t.Fatalf("apply import %s: %v", packageID, err)
	}
}
