package aasx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/industrialdt/aashub/internal/aas"
	apperrors "github.com/industrialdt/aashub/internal/platform/errors"
)

// maxPartBytes caps a single decompressed JSON part. Oversized parts are
// treated as malformed rather than exhausting memory.
const maxPartBytes = 64 << 20

// ZipDecoder reads AASX containers: zip archives holding one or more JSON
// environment parts with assetAdministrationShells, submodels, and
// conceptDescriptions arrays. Parts merge in archive order.
type ZipDecoder struct{}

// NewZipDecoder returns the default AASX container decoder.
func NewZipDecoder() *ZipDecoder {
	return &ZipDecoder{}
}

// Decode implements Decoder.
func (d *ZipDecoder) Decode(ctx context.Context, blob []byte) (aas.Environment, error) {
	if err := ctx.Err(); err != nil {
		return aas.Environment{}, err
	}
	if len(blob) == 0 {
		return aas.Environment{}, apperrors.New(apperrors.CodePackageMalformed, "package blob is empty")
	}

	reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return aas.Environment{}, apperrors.Wrap(apperrors.CodePackageMalformed, "package is not a valid container", err)
	}

	var env aas.Environment
	parts := 0
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return aas.Environment{}, err
		}
		if !isEnvironmentPart(file.Name) {
			continue
		}

		part, err := readPart(file)
		if err != nil {
			return aas.Environment{}, apperrors.Wrap(apperrors.CodePackageMalformed,
				fmt.Sprintf("read part %s", file.Name), err)
		}

		var partEnv aas.Environment
		if err := json.Unmarshal(part, &partEnv); err != nil {
			return aas.Environment{}, apperrors.Wrap(apperrors.CodePackageMalformed,
				fmt.Sprintf("decode part %s", file.Name), err)
		}

		env.Shells = append(env.Shells, partEnv.Shells...)
		env.Submodels = append(env.Submodels, partEnv.Submodels...)
		env.ConceptDescriptions = append(env.ConceptDescriptions, partEnv.ConceptDescriptions...)
		parts++
	}

	if parts == 0 {
		return aas.Environment{}, apperrors.New(apperrors.CodePackageMalformed, "package contains no environment parts")
	}
	if err := validateIdentity(env); err != nil {
		return aas.Environment{}, err
	}
	return env, nil
}

// isEnvironmentPart selects the JSON payloads inside the container,
// skipping OPC bookkeeping files.
func isEnvironmentPart(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".json") {
		return false
	}
	if strings.HasPrefix(lower, "_rels/") || strings.Contains(lower, "/_rels/") {
		return false
	}
	return true
}

func readPart(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPartBytes {
		return nil, fmt.Errorf("part exceeds %d bytes", maxPartBytes)
	}
	return data, nil
}

// validateIdentity rejects environments with entities missing ids. The
// id is the merge key across packages; an empty id cannot merge.
func validateIdentity(env aas.Environment) error {
	for _, shell := range env.Shells {
		if strings.TrimSpace(shell.ID) == "" {
			return apperrors.New(apperrors.CodeEntityIDMissing, "shell without id")
		}
	}
	for _, sm := range env.Submodels {
		if strings.TrimSpace(sm.ID) == "" {
			return apperrors.New(apperrors.CodeEntityIDMissing, "submodel without id")
		}
	}
	for _, cd := range env.ConceptDescriptions {
		if strings.TrimSpace(cd.ID) == "" {
			return apperrors.New(apperrors.CodeEntityIDMissing, "concept description without id")
		}
	}
	return nil
}

var _ Decoder = (*ZipDecoder)(nil)
