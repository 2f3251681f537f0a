package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	drive "google.golang.org/api/drive/v3"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Entry is one file or folder as seen through a list call.
type Entry struct {
	ID       string
	Name     string
	MimeType string
}

// API is the narrow Drive surface the store consumes. Queries are by name
// and parent, never by durable id; callers tolerate zero-or-one-or-many
// matches and take the first.
type API interface {
	// FindFolder looks up a folder by name under a parent ("" = anywhere).
	FindFolder(ctx context.Context, name, parentID string) (id string, found bool, err error)
	// CreateFolder creates a folder, optionally under a parent.
	CreateFolder(ctx context.Context, name, parentID string) (id string, err error)
	// FindFile looks up a regular file by name under a parent.
	FindFile(ctx context.Context, name, parentID string) (id string, found bool, err error)
	// CreateFile creates a file with the given content under a parent.
	CreateFile(ctx context.Context, name, parentID string, data []byte) (id string, err error)
	// Download returns the full media content of a file.
	Download(ctx context.Context, fileID string) ([]byte, error)
	// Update replaces a file's media content wholesale.
	Update(ctx context.Context, fileID string, data []byte) error
	// Delete removes a file or folder.
	Delete(ctx context.Context, fileID string) error
	// List returns the direct, non-trashed children of a folder.
	List(ctx context.Context, parentID string) ([]Entry, error)
	// Share grants writer access on a file or folder to an account.
	Share(ctx context.Context, fileID, email string) error
}

// googleAPI implements API against the real Drive v3 service.
type googleAPI struct {
	svc *drive.Service
}

// NewAPI wraps a Drive service in the store-facing API.
func NewAPI(svc *drive.Service) API {
	return &googleAPI{svc: svc}
}

func (g *googleAPI) findByQuery(ctx context.Context, q string) (string, bool, error) {
	res, err := g.svc.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", false, fmt.Errorf("drive list query failed: %w", err)
	}
	if len(res.Files) == 0 {
		return "", false, nil
	}
	return res.Files[0].Id, true, nil
}

func (g *googleAPI) FindFolder(ctx context.Context, name, parentID string) (string, bool, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", name, folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", parentID)
	}
	return g.findByQuery(ctx, q)
}

func (g *googleAPI) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	folder, err := g.svc.Files.Create(meta).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return folder.Id, nil
}

func (g *googleAPI) FindFile(ctx context.Context, name, parentID string) (string, bool, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", name, parentID)
	return g.findByQuery(ctx, q)
}

func (g *googleAPI) CreateFile(ctx context.Context, name, parentID string, data []byte) (string, error) {
	meta := &drive.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: "application/json",
	}

	file, err := g.svc.Files.Create(meta).
		Media(bytes.NewReader(data)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", name, err)
	}
	return file.Id, nil
}

func (g *googleAPI) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := g.svc.Files.Get(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

func (g *googleAPI) Update(ctx context.Context, fileID string, data []byte) error {
	_, err := g.svc.Files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(data)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update file %s: %w", fileID, err)
	}
	return nil
}

func (g *googleAPI) Delete(ctx context.Context, fileID string) error {
	err := g.svc.Files.Delete(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

func (g *googleAPI) List(ctx context.Context, parentID string) ([]Entry, error) {
	var entries []Entry
	pageToken := ""
	for {
		call := g.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed=false", parentID)).
			Spaces("drive").
			Fields("nextPageToken, files(id, name, mimeType)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list folder %s: %w", parentID, err)
		}
		for _, f := range res.Files {
			entries = append(entries, Entry{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
		}

		pageToken = res.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return entries, nil
}

func (g *googleAPI) Share(ctx context.Context, fileID, email string) error {
	perm := &drive.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: email,
	}

	_, err := g.svc.Permissions.Create(fileID, perm).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to share %s with %s: %w", fileID, email, err)
	}
	return nil
}
