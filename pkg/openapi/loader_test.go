package openapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsV3 = `openapi: 3.0.3
info:
  title: Pets
  version: "1.0.0"
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
components:
  schemas:
    Pet:
      type: object
      properties:
        name:
          type: string
`

const petsV2 = `swagger: "2.0"
info:
  title: Pets
  version: "1.0.0"
host: pets.example.com
basePath: /v1
schemes: [https]
paths:
  /pets:
    get:
      produces: [application/json]
      responses:
        "200":
          description: ok
          schema:
            type: array
            items:
              $ref: '#/definitions/Pet'
definitions:
  Pet:
    type: object
    properties:
      name:
        type: string
`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func requireCode(t *testing.T, err error, code ErrorCode) *LoadError {
	t.Helper()
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le), "expected *LoadError, got %T", err)
	assert.Equal(t, code, le.Code)
	return le
}

func TestLoadV3File(t *testing.T) {
	doc, err := Load(context.Background(), writeSpec(t, "pets.yaml", petsV3))
	require.NoError(t, err)
	assert.Equal(t, "Pets", doc.Info.Title)
	require.NotNil(t, doc.Components)
	assert.Contains(t, doc.Components.Schemas, "Pet")

	items := doc.Paths.Find("/pets").Get.Responses.Value("200").Value.Content["application/json"].Schema.Value.Items
	assert.Equal(t, "#/components/schemas/Pet", items.Ref)
	assert.NotNil(t, items.Value, "refs are resolved")
}

func TestLoadV2IsConverted(t *testing.T) {
	doc, err := Load(context.Background(), writeSpec(t, "pets.yaml", petsV2))
	require.NoError(t, err)
	assert.Contains(t, doc.OpenAPI, "3.")
	require.NotEmpty(t, doc.Servers)
	assert.Equal(t, "https://pets.example.com/v1", doc.Servers[0].URL)
	assert.Contains(t, doc.Components.Schemas, "Pet")

	items := doc.Paths.Find("/pets").Get.Responses.Value("200").Value.Content["application/json"].Schema.Value.Items
	assert.Equal(t, "#/components/schemas/Pet", items.Ref)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, "  ")
	requireCode(t, err, InputError)

	_, err = Load(ctx, "ftp://example.com/spec.yaml")
	requireCode(t, err, InputError)

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	requireCode(t, err, InputError)

	_, err = Load(ctx, writeSpec(t, "unknown.yaml", "asyncapi: 2.0.0\ninfo: {}\n"))
	requireCode(t, err, ParseError)

	_, err = Load(ctx, writeSpec(t, "broken.yaml", "openapi: [3\n"))
	requireCode(t, err, ParseError)
}

func TestValidate(t *testing.T) {
	invalid := `openapi: 3.0.3
info:
  title: Bad
  version: "1.0.0"
paths:
  /pet:
    get:
      responses: {}
`
	path := writeSpec(t, "bad.yaml", invalid)
	le := requireCode(t, Validate(context.Background(), path), ValidationError)
	assert.Equal(t, path, le.Location)

	_, err := Load(context.Background(), path, WithValidation(false))
	assert.NoError(t, err)

	assert.NoError(t, ValidateDocument(writeSpec(t, "pets.yaml", petsV3)))
}

func TestLoadFromURLRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(petsV3))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/openapi.yaml", WithBackoffBase(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "Pets", doc.Info.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoadFromURLClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/missing.yaml", WithBackoffBase(time.Millisecond))
	requireCode(t, err, NetworkError)
}

func TestDetectSpecVersion(t *testing.T) {
	tests := []struct {
		input   string
		version int
		wantErr bool
	}{
		{`{"openapi": "3.1.0"}`, 3, false},
		{"openapi: 3.0.3\n", 3, false},
		{"swagger: \"2.0\"\n", 2, false},
		{"swagger: 2.0\n", 2, false},
		{"openapi: 2.0\n", 0, true},
		{"info: {}\n", 0, true},
	}
	for _, test := range tests {
		v, err := detectSpecVersion([]byte(test.input))
		if test.wantErr {
			assert.Error(t, err, test.input)
			continue
		}
		require.NoError(t, err, test.input)
		assert.Equal(t, test.version, v, test.input)
	}
}
