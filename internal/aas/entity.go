// Package aas defines the Asset Administration Shell domain model: shells,
// submodels, concept descriptions, their registry descriptors, uploaded
// packages, and the activity records describing repository mutations.
package aas

import "time"

// Kind names an entity namespace. Shells, submodels, and concept
// descriptions share identical merge semantics but never collide with
// each other.
type Kind string

const (
	KindShell              Kind = "shell"
	KindSubmodel           Kind = "submodel"
	KindConceptDescription Kind = "concept_description"
)

// AssetKind classifies the asset a shell describes.
type AssetKind string

const (
	AssetKindInstance      AssetKind = "Instance"
	AssetKindType          AssetKind = "Type"
	AssetKindNotApplicable AssetKind = "NotApplicable"
)

// SubmodelKind distinguishes submodel instances from templates.
type SubmodelKind string

const (
	SubmodelKindInstance SubmodelKind = "Instance"
	SubmodelKindTemplate SubmodelKind = "Template"
)

// AssetInformation identifies the asset behind a shell.
type AssetInformation struct {
	AssetKind     AssetKind `json:"assetKind"`
	GlobalAssetID string    `json:"globalAssetId,omitempty"`
}

// Reference is a chain of semantic keys; only key values are retained.
type Reference struct {
	Keys []Key `json:"keys"`
}

// Key is a single reference key.
type Key struct {
	Value string `json:"value"`
}

// First returns the leading key value, or empty when the reference is unset.
func (r *Reference) First() string {
	if r == nil || len(r.Keys) == 0 {
		return ""
	}
	return r.Keys[0].Value
}

// Shell is a top-level AAS entity identifying an asset. The id is
// caller-supplied from package content and is the merge key across
// packages.
type Shell struct {
	ID               string           `json:"id"`
	IDShort          string           `json:"idShort,omitempty"`
	AssetInformation AssetInformation `json:"assetInformation"`
}

// Submodel describes one aspect of a shell.
type Submodel struct {
	ID         string       `json:"id"`
	IDShort    string       `json:"idShort,omitempty"`
	SemanticID *Reference   `json:"semanticId,omitempty"`
	Kind       SubmodelKind `json:"kind,omitempty"`
}

// ConceptDescription is a semantic definition referenced by submodel
// elements. It follows the same identity and merge rules as Submodel.
type ConceptDescription struct {
	ID      string `json:"id"`
	IDShort string `json:"idShort,omitempty"`
}

// Environment is the decoded content of an AASX package: the ordered
// entity lists a trusted decoder produces.
type Environment struct {
	Shells              []Shell              `json:"assetAdministrationShells"`
	Submodels           []Submodel           `json:"submodels"`
	ConceptDescriptions []ConceptDescription `json:"conceptDescriptions"`
}

// EntityCount totals the entities across all namespaces.
func (e Environment) EntityCount() int {
	return len(e.Shells) + len(e.Submodels) + len(e.ConceptDescriptions)
}

// Provenance links an entity to the package that last contributed it.
type Provenance struct {
	PackageID string    `json:"packageId"`
	UpdatedAt time.Time `json:"updatedAt"`
}
