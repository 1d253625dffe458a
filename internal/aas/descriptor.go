package aas

// ShellDescriptor is the registry projection of a shell: the minimal
// metadata discovery needs without fetching the entity body. Descriptors
// are recomputed whenever the source entity changes and never outlive it.
type ShellDescriptor struct {
	ID            string    `json:"id"`
	IDShort       string    `json:"idShort,omitempty"`
	AssetKind     AssetKind `json:"assetKind"`
	GlobalAssetID string    `json:"globalAssetId,omitempty"`
}

// SubmodelDescriptor is the registry projection of a submodel.
type SubmodelDescriptor struct {
	ID         string `json:"id"`
	IDShort    string `json:"idShort,omitempty"`
	SemanticID string `json:"semanticId,omitempty"`
}

// DescribeShell projects a shell into its registry descriptor.
func DescribeShell(s Shell) ShellDescriptor {
	return ShellDescriptor{
		ID:            s.ID,
		IDShort:       s.IDShort,
		AssetKind:     s.AssetInformation.AssetKind,
		GlobalAssetID: s.AssetInformation.GlobalAssetID,
	}
}

// DescribeSubmodel projects a submodel into its registry descriptor.
func DescribeSubmodel(s Submodel) SubmodelDescriptor {
	return SubmodelDescriptor{
		ID:         s.ID,
		IDShort:    s.IDShort,
		SemanticID: s.SemanticID.First(),
	}
}
