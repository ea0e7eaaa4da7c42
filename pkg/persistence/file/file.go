// Package file provides file-based persistence for development and
// tests. Each entity is one JSON document; writes are atomic renames.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/growloop/growloop/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root           string
	projectRepo    *ProjectRepository
	pillarRepo     *PillarRepository
	workflowRepo   *WorkflowRepository
	taskRepo       *TaskRepository
	engagementRepo *EngagementJobRepository
}

// NewPersistence creates a file persistence rooted at the given
// directory. A "file://" prefix is stripped for database-URL symmetry.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		projectRepo:    &ProjectRepository{root: cleanRoot},
		pillarRepo:     &PillarRepository{root: cleanRoot},
		workflowRepo:   &WorkflowRepository{root: cleanRoot},
		taskRepo:       &TaskRepository{root: cleanRoot},
		engagementRepo: &EngagementJobRepository{root: cleanRoot},
	}
}

// Close performs any necessary cleanup. Nothing to do for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) ProjectRepository() persistence.ProjectRepository {
	return fp.projectRepo
}

func (fp *Persistence) PillarRepository() persistence.PillarRepository {
	return fp.pillarRepo
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return fp.taskRepo
}

func (fp *Persistence) EngagementJobRepository() persistence.EngagementJobRepository {
	return fp.engagementRepo
}

// readDoc loads one JSON document, returning the zero value and false
// when the document does not exist.
func readDoc[T any](root, kind, id string) (*T, bool, error) {
	filePath := filepath.Clean(path.Join(root, kind, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}

	var doc T

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return &doc, true, nil
}

// writeDoc persists one JSON document atomically.
func writeDoc(root, kind, id string, doc any) error {
	dir := path.Join(root, kind)

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	err = renameio.WriteFile(path.Join(dir, id+".json"), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	return nil
}

// listDocs loads every JSON document of a kind. An absent directory is
// an empty result, not an error.
func listDocs[T any](root, kind string) ([]*T, error) {
	dir := path.Join(root, kind)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*T{}, nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", kind, err)
	}

	docs := make([]*T, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		id := strings.TrimSuffix(name, ".json")

		doc, ok, err := readDoc[T](root, kind, id)
		if err != nil {
			return nil, err
		}

		if ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

func deleteDoc(root, kind, id string) error {
	err := os.Remove(path.Join(root, kind, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}

	return nil
}
