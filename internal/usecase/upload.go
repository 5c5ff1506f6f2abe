package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// UploadService issues presigned PUT URLs so browsers upload artifacts
// straight to object storage; no bytes transit this service.
type UploadService struct {
	Store     domain.ObjectStore
	PutExpiry time.Duration
}

// NewUploadService constructs an UploadService.
func NewUploadService(store domain.ObjectStore, putExpiry time.Duration) UploadService {
	return UploadService{Store: store, PutExpiry: putExpiry}
}

// validFolders are the purposes a client may declare; anything else lands
// in the generic uploads prefix.
var validFolders = map[string]bool{"notes": true, "scores": true, "feedback": true}

// PresignedUpload is the issued URL plus the key the client must later
// reference in its submission.
type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

// Presign derives a fresh storage key under the declared folder and
// returns a time-limited PUT URL for it.
func (s UploadService) Presign(ctx domain.Context, filename, contentType, folder string) (PresignedUpload, error) {
	if strings.TrimSpace(filename) == "" || strings.TrimSpace(contentType) == "" {
		return PresignedUpload{}, fmt.Errorf("%w: filename and content_type required", domain.ErrInvalidArgument)
	}
	key := DeriveKey(filename, folder)
	url, err := s.Store.PresignPut(ctx, key, contentType, s.PutExpiry)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("op=upload.presign: %w", err)
	}
	return PresignedUpload{UploadURL: url, Key: key}, nil
}

// DeriveKey builds "<folder>/<uuid><ext>"; unknown folders map to
// "uploads". The extension is kept so storage viewers show sensible types.
func DeriveKey(filename, folder string) string {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if !validFolders[folder] {
		folder = "uploads"
	}
	return folder + "/" + uuid.New().String() + filepath.Ext(filename)
}
