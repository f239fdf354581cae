package sdkgen_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkgen "github.com/blimu-dev/resource-sdk-gen"
	"github.com/blimu-dev/resource-sdk-gen/pkg/openapi"
)

const petsSpec = `{
  "swagger": "2.0",
  "info": {"title": "Pets", "version": "3.1.0"},
  "host": "pets.example.com",
  "basePath": "/v1",
  "schemes": ["https"],
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "ok", "schema": {"type": "array", "items": {"$ref": "#/definitions/Pet"}}}
        }
      }
    },
    "/pets/{petId}": {
      "get": {
        "operationId": "getPet",
        "produces": ["application/json"],
        "parameters": [{"name": "petId", "in": "path", "required": true, "type": "string"}],
        "responses": {
          "200": {"description": "ok", "schema": {"$ref": "#/definitions/Pet"}}
        }
      }
    }
  },
  "definitions": {
    "Pet": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "owner": {"type": "object", "properties": {"email": {"type": "string"}}}
      }
    }
  }
}`

func TestValidateSpecMissingFile(t *testing.T) {
	err := sdkgen.ValidateSpec(context.Background(), "/no/such/file.yaml")
	var loadErr *openapi.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, openapi.InputError, loadErr.Code)
}

func TestGenerateJavaScriptSDKFromSwagger2(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(spec, []byte(petsSpec), 0o600))
	out := filepath.Join(dir, "sdk")

	require.NoError(t, sdkgen.GenerateJavaScriptSDK(context.Background(), spec, out, "", "Pets"))

	index, err := os.ReadFile(filepath.Join(out, "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "export default class Pets {")

	client, err := os.ReadFile(filepath.Join(out, "client.js"))
	require.NoError(t, err)
	assert.Contains(t, string(client), `DEFAULT_BASE_URL = "https://pets.example.com/v1"`)

	assert.FileExists(t, filepath.Join(out, "models", "pet.js"))
	assert.FileExists(t, filepath.Join(out, "models", "owner.js"), "inline objects become models")
	assert.FileExists(t, filepath.Join(out, "resources", "pets.js"))
}

const addressSpec = `{
  "openapi": "3.0.3",
  "info": {"title": "Addresses", "version": "1.0.0"},
  "paths": {
    "/users": {
      "get": {
        "operationId": "listUsers",
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/User"}}}}}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Address": {"type": "object", "properties": {"street": {"type": "string"}}},
      "User": {
        "type": "object",
        "properties": {
          "address": {"type": "object", "properties": {"zip": {"type": "string"}}}
        }
      }
    }
  }
}`

func TestGenerateJavaScriptSDKKeepsCaseOnlyModelNamesApart(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "openapi.json")
	require.NoError(t, os.WriteFile(spec, []byte(addressSpec), 0o600))
	out := filepath.Join(dir, "sdk")

	require.NoError(t, sdkgen.GenerateJavaScriptSDK(context.Background(), spec, out, "", ""))

	index, err := os.ReadFile(filepath.Join(out, "index.js"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(index), "export { Address }"))
	assert.Contains(t, string(index), "export { Address2 } from './models/address2.js';")

	named, err := os.ReadFile(filepath.Join(out, "models", "address.js"))
	require.NoError(t, err)
	assert.Contains(t, string(named), `this["street"]`)

	hoisted, err := os.ReadFile(filepath.Join(out, "models", "address2.js"))
	require.NoError(t, err)
	assert.Contains(t, string(hoisted), `this["zip"]`)
}
