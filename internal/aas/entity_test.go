package aas

import "testing"

func TestReferenceFirst(t *testing.T) {
	tests := []struct {
		name string
		ref  *Reference
		want string
	}{
		{"nil reference", nil, ""},
		{"empty keys", &Reference{}, ""},
		{"single key", &Reference{Keys: []Key{{Value: "urn:sm:doc"}}}, "urn:sm:doc"},
		{"multiple keys", &Reference{Keys: []Key{{Value: "a"}, {Value: "b"}}}, "a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ref.First(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestEnvironmentEntityCount(t *testing.T) {
	env := Environment{
		Shells:              []Shell{{ID: "s1"}, {ID: "s2"}},
		Submodels:           []Submodel{{ID: "m1"}},
		ConceptDescriptions: []ConceptDescription{{ID: "c1"}},
	}
	if env.EntityCount() != 4 {
		t.Fatalf("expected 4 entities, got %d", env.EntityCount())
	}
	if (Environment{}).EntityCount() != 0 {
		t.Fatal("expected empty environment to count zero")
	}
}

func TestDescribeShell(t *testing.T) {
	shell := Shell{
		ID:      "urn:shell:pump-1",
		IDShort: "Pump",
		AssetInformation: AssetInformation{
			AssetKind:     AssetKindInstance,
			GlobalAssetID: "urn:asset:pump-1",
		},
	}

	desc := DescribeShell(shell)
	if desc.ID != shell.ID {
		t.Fatalf("descriptor id mismatch: %s", desc.ID)
	}
	if desc.IDShort != "Pump" || desc.AssetKind != AssetKindInstance || desc.GlobalAssetID != "urn:asset:pump-1" {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
}

func TestDescribeSubmodel(t *testing.T) {
	sm := Submodel{
		ID:         "urn:sm:docs",
		IDShort:    "Documentation",
		SemanticID: &Reference{Keys: []Key{{Value: "urn:semantic:docs"}}},
		Kind:       SubmodelKindInstance,
	}

	desc := DescribeSubmodel(sm)
	if desc.SemanticID != "urn:semantic:docs" {
		t.Fatalf("expected flattened semantic id, got %q", desc.SemanticID)
	}

	bare := DescribeSubmodel(Submodel{ID: "urn:sm:bare"})
	if bare.SemanticID != "" {
		t.Fatalf("expected empty semantic id, got %q", bare.SemanticID)
	}
}
