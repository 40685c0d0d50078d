package identity

import (
	"github.com/benmeehan/iot-dashboard/pkg/file"
	"github.com/google/uuid"
)

// Identity holds this dashboard instance's stable identifier. The ID is
// generated on first run and persisted, so the broker sees the same client
// across restarts.
type Identity struct {
	ID   string `json:"viewer_id,omitempty"`
	Name string `json:"viewer_name,omitempty"`
}

// ViewerInfoInterface defines methods for managing the dashboard identity.
type ViewerInfoInterface interface {
	EnsureViewerID() error
	GetViewerID() string
	GetIdentity() *Identity
}

// ViewerInfo manages the identity and its backing file.
type ViewerInfo struct {
	ViewerInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewViewerInfo initializes a new ViewerInfo instance.
func NewViewerInfo(filePath string, fileOps file.FileOperations) ViewerInfoInterface {
	return &ViewerInfo{
		ViewerInfoFile: filePath,
		fileOps:        fileOps,
		Identity:       Identity{},
	}
}

// EnsureViewerID loads the identity from the file, generating and
// persisting a fresh one when the file is missing or carries no ID.
func (v *ViewerInfo) EnsureViewerID() error {
	exists, err := v.fileOps.IsFileExists(v.ViewerInfoFile)
	if err != nil {
		return err
	}

	if exists {
		if err := v.fileOps.ReadJsonFile(v.ViewerInfoFile, &v.Identity); err != nil {
			return err
		}
		if v.Identity.ID != "" {
			return nil
		}
	}

	v.Identity.ID = "viewer-" + uuid.New().String()
	return v.fileOps.WriteJsonFile(v.ViewerInfoFile, v.Identity)
}

// GetViewerID returns the current viewer ID.
func (v *ViewerInfo) GetViewerID() string {
	return v.Identity.ID
}

// GetIdentity returns the current Identity.
func (v *ViewerInfo) GetIdentity() *Identity {
	return &v.Identity
}
