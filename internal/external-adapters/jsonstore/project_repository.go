package jsonstore

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

const (
	projectFile  = "cFp.json"
	modKey       = "cFpMOD"
	shellTypeKey = "cFpSRAtype"
)

// ProjectRepository reads cFp.json
type ProjectRepository struct{}

// NewProjectRepository creates a new project repository
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{}
}

// LoadProject reads the module and shell type of the project at root.
// Only cFpMOD is required; the shell type matters for update-shell alone.
func (r *ProjectRepository) LoadProject(_ context.Context, root string) (*entities.Project, error) {
	path := filepath.Join(root, projectFile)
	fields, err := readObject(path)
	if err != nil {
		return nil, err
	}

	project := &entities.Project{Root: root}

	raw, ok := fields[modKey]
	if !ok {
		return nil, &entities.MissingFieldError{Path: path, Field: modKey}
	}
	if err := json.Unmarshal(raw, &project.Module); err != nil || project.Module == "" {
		if err == nil {
			return nil, &entities.MissingFieldError{Path: path, Field: modKey}
		}
		return nil, &entities.ParseError{Path: path, Err: err}
	}

	if raw, ok := fields[shellTypeKey]; ok {
		if err := json.Unmarshal(raw, &project.ShellType); err != nil {
			return nil, &entities.ParseError{Path: path, Err: err}
		}
	}

	return project, nil
}
