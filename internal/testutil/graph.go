// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blimu-dev/client-gen/pkg/openapi"
)

// RootFile is the file name LoadGraph loads as the root document.
const RootFile = "root.yaml"

// WriteFiles writes files (name to content) under a fresh temp dir and
// returns the dir.
func WriteFiles(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
	return dir
}

// LoadGraph writes files to a temp dir and loads RootFile from it.
func LoadGraph(t testing.TB, files map[string]string) *openapi.Graph {
	t.Helper()
	dir := WriteFiles(t, files)
	g, err := openapi.LoadGraph(context.Background(), filepath.Join(dir, RootFile), openapi.Options{})
	if err != nil {
		t.Fatalf("loading graph: %v", err)
	}
	return g
}

// LoadRoot loads a single root document.
func LoadRoot(t testing.TB, root string) *openapi.Graph {
	t.Helper()
	return LoadGraph(t, map[string]string{RootFile: root})
}

// Petstore is a small document exercising parameters, bodies, enums and
// tags.
const Petstore = `openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pets]
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
        - name: status
          in: query
          required: true
          schema:
            $ref: '#/components/schemas/PetStatus'
      responses:
        '200':
          description: A list of pets
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
        default:
          description: Unexpected error
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
    post:
      operationId: createPet
      tags: [pets]
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/NewPet'
      responses:
        '201':
          description: Created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /pets/{petId}:
    get:
      operationId: showPetById
      tags: [pets]
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: A pet
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /store/inventory:
    get:
      operationId: getInventory
      tags: [store]
      responses:
        '200':
          description: Inventory
          content:
            application/json:
              schema:
                type: object
                additionalProperties:
                  type: integer
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: string
          format: uuid
        name:
          type: string
          description: The pet name
        status:
          $ref: '#/components/schemas/PetStatus'
        tags:
          type: array
          items:
            type: string
    NewPet:
      type: object
      required: [name]
      properties:
        name:
          type: string
    PetStatus:
      type: string
      enum: [available, pending, sold]
    Error:
      type: object
      required: [code, message]
      properties:
        code:
          type: integer
        message:
          type: string
`
