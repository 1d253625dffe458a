package aasx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	apperrors "github.com/industrialdt/aashub/internal/platform/errors"
)

func buildContainer(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range parts {
		part, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create part %s: %v", name, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close container: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeEnvironment(t *testing.T) {
	blob := buildContainer(t, map[string]string{
		"aasx/env.json": `{
			"assetAdministrationShells": [
				{"id": "urn:shell:1", "idShort": "Pump", "assetInformation": {"assetKind": "Instance", "globalAssetId": "urn:asset:1"}}
			],
			"submodels": [
				{"id": "urn:sm:1", "idShort": "Docs", "semanticId": {"keys": [{"value": "urn:semantic:docs"}]}, "kind": "Instance"}
			],
			"conceptDescriptions": [
				{"id": "urn:cd:1"}
			]
		}`,
	})

	env, err := NewZipDecoder().Decode(context.Background(), blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Shells) != 1 || len(env.Submodels) != 1 || len(env.ConceptDescriptions) != 1 {
		t.Fatalf("unexpected environment sizes: %+v", env)
	}
	if env.Shells[0].AssetInformation.GlobalAssetID != "urn:asset:1" {
		t.Fatalf("unexpected asset id: %s", env.Shells[0].AssetInformation.GlobalAssetID)
	}
	if env.Submodels[0].SemanticID.First() != "urn:semantic:docs" {
		t.Fatalf("unexpected semantic id: %s", env.Submodels[0].SemanticID.First())
	}
}

func TestDecodeMergesMultipleParts(t *testing.T) {
	blob := buildContainer(t, map[string]string{
		"aasx/a.json": `{"assetAdministrationShells": [{"id": "urn:shell:a", "assetInformation": {"assetKind": "Instance"}}]}`,
		"aasx/b.json": `{"submodels": [{"id": "urn:sm:b"}]}`,
	})

	env, err := NewZipDecoder().Decode(context.Background(), blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Shells) != 1 || len(env.Submodels) != 1 {
		t.Fatalf("expected merged parts, got %+v", env)
	}
}

func TestDecodeSkipsRelsParts(t *testing.T) {
	blob := buildContainer(t, map[string]string{
		"_rels/manifest.json": `{"assetAdministrationShells": [{"id": "should-not-appear"}]}`,
		"aasx/env.json":       `{"submodels": [{"id": "urn:sm:1"}]}`,
	})

	env, err := NewZipDecoder().Decode(context.Background(), blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Shells) != 0 {
		t.Fatal("expected _rels parts to be skipped")
	}
}

func TestDecodeRejectsMalformedContainer(t *testing.T) {
	_, err := NewZipDecoder().Decode(context.Background(), []byte("not a zip"))
	if apperrors.CodeOf(err) != apperrors.CodePackageMalformed {
		t.Fatalf("expected malformed package code, got %v", err)
	}
}

func TestDecodeRejectsEmptyBlob(t *testing.T) {
	_, err := NewZipDecoder().Decode(context.Background(), nil)
	if apperrors.CodeOf(err) != apperrors.CodePackageMalformed {
		t.Fatalf("expected malformed package code, got %v", err)
	}
}

func TestDecodeRejectsContainerWithoutEnvironment(t *testing.T) {
	blob := buildContainer(t, map[string]string{
		"readme.txt": "no json here",
	})

	_, err := NewZipDecoder().Decode(context.Background(), blob)
	if apperrors.CodeOf(err) != apperrors.CodePackageMalformed {
		t.Fatalf("expected malformed package code, got %v", err)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	blob := buildContainer(t, map[string]string{
		"aasx/env.json": `{"assetAdministrationShells": [`,
	})

	_, err := NewZipDecoder().Decode(context.Background(), blob)
	if apperrors.CodeOf(err) != apperrors.CodePackageMalformed {
		t.Fatalf("expected malformed package code, got %v", err)
	}
}

func TestDecodeRejectsMissingEntityID(t *testing.T) {
	blob := buildContainer(t, map[string]string{
		"aasx/env.json": `{"submodels": [{"idShort": "NoID"}]}`,
	})

	_, err := NewZipDecoder().Decode(context.Background(), blob)
	if apperrors.CodeOf(err) != apperrors.CodeEntityIDMissing {
		t.Fatalf("expected missing id code, got %v", err)
	}
}

func TestDecodeHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewZipDecoder().Decode(ctx, []byte("irrelevant"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
