package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// CredentialsFileName is the per-project credentials file
const CredentialsFileName = "user.json"

type userFile struct {
	Credentials struct {
		User string `json:"user"`
		Pw   string `json:"pw"`
	} `json:"credentials"`
	Project string `json:"project,omitempty"`
}

// CredentialsRepository reads user.json, writing a fill-in template when it
// is missing or unusable
type CredentialsRepository struct{}

// NewCredentialsRepository creates a new credentials repository
func NewCredentialsRepository() *CredentialsRepository {
	return &CredentialsRepository{}
}

// LoadCredentials reads the OpenStack credentials stored at root
func (r *CredentialsRepository) LoadCredentials(_ context.Context, root string) (*entities.Credentials, error) {
	path := filepath.Join(root, CredentialsFileName)

	//nolint:gosec // G304: credentials live in the project root
	data, err := os.ReadFile(path)
	if err == nil {
		var f userFile
		if err = json.Unmarshal(data, &f); err == nil {
			if f.Credentials.User == "" || f.Credentials.Pw == "" {
				err = &entities.MissingFieldError{Path: path, Field: "credentials"}
			} else {
				project := f.Project
				if project == "" {
					project = "default"
				}
				return &entities.Credentials{User: f.Credentials.User, Password: f.Credentials.Pw, Project: project}, nil
			}
		} else {
			err = &entities.ParseError{Path: path, Err: err}
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		err = &entities.NotFoundError{Path: path}
	} else {
		return nil, &entities.IOError{Op: "read", Path: path, Err: err}
	}

	if werr := writeTemplate(path); werr != nil {
		return nil, errors.Join(err, werr)
	}
	return nil, fmt.Errorf("%w; a template was written, please save your OpenStack credentials in %s", err, path)
}

func writeTemplate(path string) error {
	var f userFile
	f.Credentials.User = "your user name"
	f.Credentials.Pw = "your user password"
	f.Project = "default"

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return &entities.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
