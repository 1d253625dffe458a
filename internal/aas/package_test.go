package aas

import "testing"

func TestPackageStatusValid(t *testing.T) {
	for _, status := range []PackageStatus{PackageUploaded, PackageImporting, PackageImported, PackageFailed} {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if PackageStatus("archived").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestPackageStatusTerminal(t *testing.T) {
	if PackageImporting.Terminal() {
		t.Fatal("importing is not a terminal state")
	}
	for _, status := range []PackageStatus{PackageUploaded, PackageImported, PackageFailed} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
}

func TestPackageStatusCanStartImport(t *testing.T) {
	tests := []struct {
		status PackageStatus
		want   bool
	}{
		{PackageUploaded, true},
		{PackageFailed, true},
		{PackageImported, true},
		{PackageImporting, false},
	}
	for _, tc := range tests {
		if got := tc.status.CanStartImport(); got != tc.want {
			t.Fatalf("status %s: expected %t, got %t", tc.status, tc.want, got)
		}
	}
}
