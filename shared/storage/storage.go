package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// MaxUploadSize is the largest accepted file
const MaxUploadSize = 5 << 20

// ObjectStore is a bucket of objects addressed by key
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
}

// Object describes an uploaded file
type Object struct {
	URL      string `json:"url"`
	Key      string `json:"-"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

// Service places uploads in per-dealer folders and enforces that dealer
// admins only touch their own folder.
type Service struct {
	store     ObjectStore
	publicURL string
	log       logrus.FieldLogger
}

func NewService(store ObjectStore, publicURL string, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       log,
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "file"
	}
	return name
}

// folderFor returns the key prefix a principal uploads into
func folderFor(p *models.Principal) (string, error) {
	switch {
	case p.IsProducerAdmin():
		return "uploads", nil
	case p.Role == models.RoleDealerAdmin && p.DealerID != nil:
		return fmt.Sprintf("dealers/%d", *p.DealerID), nil
	default:
		return "", utils.Forbidden("You do not have permission to manage files.")
	}
}

// Upload stores the file and returns its public URL
func (s *Service) Upload(ctx context.Context, p *models.Principal, fileName, contentType string, size int64, body io.Reader) (*Object, error) {
	if p == nil {
		return nil, utils.Unauthorized("Not authorized.")
	}
	if size > MaxUploadSize {
		return nil, utils.BadRequest("File is larger than 5 MB.")
	}
	folder, err := folderFor(p)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s-%s", folder, uuid.NewString(), sanitizeFileName(fileName))
	if err := s.store.Put(ctx, key, contentType, body); err != nil {
		return nil, utils.Internal("An error occurred while uploading the file.", err)
	}

	s.log.WithFields(logrus.Fields{"key": key, "size": size}).Info("File uploaded")
	return &Object{
		URL:      s.publicURL + "/" + key,
		Key:      key,
		FileName: fileName,
		Size:     size,
	}, nil
}

// KeyFromURL strips the public URL prefix; bare keys pass through
func (s *Service) KeyFromURL(fileURL string) string {
	key := strings.TrimPrefix(fileURL, s.publicURL+"/")
	return strings.TrimLeft(key, "/")
}

// Delete removes the object behind fileURL
func (s *Service) Delete(ctx context.Context, p *models.Principal, fileURL string) error {
	if p == nil {
		return utils.Unauthorized("Not authorized.")
	}
	if strings.TrimSpace(fileURL) == "" {
		return utils.BadRequest("File URL to delete must be specified.")
	}

	key := path.Clean(s.KeyFromURL(fileURL))
	if key == "." || strings.HasPrefix(key, "..") {
		return utils.BadRequest("Invalid file URL.")
	}

	if !p.IsProducerAdmin() {
		folder, err := folderFor(p)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(key, folder+"/") {
			return utils.Forbidden("You can only delete your own dealer's files.")
		}
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return utils.Internal("Failed to delete the file.", err)
	}
	s.log.WithField("key", key).Info("File deleted")
	return nil
}
