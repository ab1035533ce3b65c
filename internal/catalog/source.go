package catalog

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/repository"
	"alcyxob/exercise-catalog/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// OpenSource opens a catalog document. An empty source selects the embedded
// dataset, s3://bucket/key reads from objects, anything else is a file path.
func OpenSource(ctx context.Context, source string, objects storage.ObjectStore) (io.ReadCloser, error) {
	switch {
	case source == "":
		return io.NopCloser(EmbeddedBundled()), nil
	case storage.IsObjectURL(source):
		if objects == nil {
			return nil, fmt.Errorf("source %s: no object store configured", source)
		}
		u, err := storage.ParseObjectURL(source)
		if err != nil {
			return nil, err
		}
		return objects.GetObject(ctx, u.Bucket, u.Key)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open source: %w", err)
		}
		return f, nil
	}
}

// LoadBundledSource opens, decodes and media-tags the bundled corpus. A
// document that does not decode contributes nothing: it is logged and an
// empty set is returned without error, so the catalog still serves custom
// exercises. Failing to open the source at all is returned.
func LoadBundledSource(ctx context.Context, source string, objects storage.ObjectStore, media MediaMap, logger *slog.Logger) ([]domain.Exercise, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rc, err := OpenSource(ctx, source, objects)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	res, err := LoadBundled(rc)
	if err != nil {
		var decodeErr *repository.DecodeError
		if errors.As(err, &decodeErr) {
			logger.Error("Bundled corpus unreadable, continuing without it", "source", sourceName(source), "error", err)
			return nil, nil
		}
		return nil, err
	}
	if res.Dropped > 0 {
		logger.Warn("Dropped malformed bundled entries", "source", sourceName(source), "dropped", res.Dropped)
	}
	logger.Info("Bundled corpus loaded", "source", sourceName(source), "count", len(res.Exercises))
	return AttachMedia(res.Exercises, media), nil
}

// LoadMediaSource reads a media map from the same kinds of source as the
// corpus. An empty source yields no media.
func LoadMediaSource(ctx context.Context, source string, objects storage.ObjectStore) (MediaMap, error) {
	if source == "" {
		return nil, nil
	}
	rc, err := OpenSource(ctx, source, objects)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return LoadMedia(rc)
}

func sourceName(source string) string {
	if source == "" {
		return "embedded"
	}
	return source
}
