package drive

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Client wraps the Drive API for the file operations this module needs:
// moving files between folders and opening up link sharing.
type Client struct {
	service *driveapi.Service
}

// NewClient creates a new Google Drive client with the provided options
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{service: service}, nil
}

// NewClientFromService wraps an already-built Drive service handle
func NewClientFromService(service *driveapi.Service) *Client {
	return &Client{service: service}
}

// MoveFile moves a Drive file into the given folder, detaching it from
// all current parents.
func (c *Client) MoveFile(ctx context.Context, fileID, folderID string) error {
	log.Debug().
		Str("file", fileID).
		Str("folder", folderID).
		Msg("Moving Drive file to folder")

	file, err := c.service.Files.Get(fileID).
		Fields("parents").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to get parents of file %s: %w", fileID, err)
	}

	previousParents := strings.Join(file.Parents, ",")

	_, err = c.service.Files.Update(fileID, &driveapi.File{}).
		AddParents(folderID).
		RemoveParents(previousParents).
		Fields("id, parents").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to move file %s: %w", fileID, err)
	}

	return nil
}

// AddLinkPermissions lets anyone with the link access the file. The
// default role is writer; pass "reader" for view-only access.
func (c *Client) AddLinkPermissions(ctx context.Context, fileID, role string) error {
	if role == "" {
		role = "writer"
	}

	log.Debug().
		Str("file", fileID).
		Str("role", role).
		Msg("Opening up permissions for file")

	permission := &driveapi.Permission{
		Role:               role,
		Type:               "anyone",
		AllowFileDiscovery: false,
	}

	_, err := c.service.Permissions.Create(fileID, permission).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update permissions on file %s: %w", fileID, err)
	}

	return nil
}
