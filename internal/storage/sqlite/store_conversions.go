package sqlite

import "github.com/industrialdt/aashub/internal/aas"

func packageStatusFromString(value string) aas.PackageStatus {
	status := aas.PackageStatus(value)
	if !status.Valid() {
		return aas.PackageStatus("")
	}
	return status
}
