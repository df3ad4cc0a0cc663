package job

import (
	"context"
	"errors"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/filestore"
	"github.com/xxxsen/docchat/internal/index"
)

// UploadCleanupJob removes retained upload files whose document was deleted
// from the vector index. Stores without listing support are skipped.
type UploadCleanupJob struct {
	files filestore.Store
	store index.Store
}

func NewUploadCleanupJob(files filestore.Store, store index.Store) *UploadCleanupJob {
	return &UploadCleanupJob{files: files, store: store}
}

func (j *UploadCleanupJob) Name() string {
	return "upload_cleanup"
}

func (j *UploadCleanupJob) Run(ctx context.Context) error {
	if j.files == nil || j.store == nil {
		return nil
	}
	keys, err := j.files.List(ctx)
	if err != nil {
		if errors.Is(err, filestore.ErrUnsupported) {
			return nil
		}
		return err
	}
	docs, err := j.store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	removed := 0
	for _, key := range keys {
		documentID, _, found := strings.Cut(key, "_")
		if !found {
			continue
		}
		if _, ok := docs[documentID]; ok {
			continue
		}
		if err := j.files.Delete(ctx, key); err != nil {
			logutil.GetLogger(ctx).Error("delete stale upload failed", zap.String("key", key), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("stale uploads removed", zap.Int("count", removed))
	}
	return nil
}
