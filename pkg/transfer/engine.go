package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

// ErrPartialWriteAbort marks a ranged download aborted after one part
// exhausted its retry budget. The partial destination file has been
// removed by the time this error is returned.
var ErrPartialWriteAbort = errors.New("transfer: ranged download aborted")

// Engine moves media objects to and from the object store under bounded
// concurrency with retry discipline.
type Engine struct {
	store    objectstore.ObjectStore
	governor *Governor
	logger   logging.Interface

	maxAttempts int
	baseDelay   time.Duration

	partSize int64
	workers  int
}

// NewEngine constructs a transfer engine from the given configuration.
func NewEngine(config *Config) (*Engine, error) {
	if config.Store == nil {
		return nil, errors.New("transfer: object store is required")
	}

	logger := config.AnotherLogger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	partSize := int64(config.DownloadPartSizeMB) * 1024 * 1024
	if partSize <= 0 {
		partSize = 10 * 1024 * 1024
	}
	workers := config.DownloadWorkers
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		store:       config.Store,
		governor:    NewGovernor(config.governorLimits()),
		logger:      logger,
		maxAttempts: maxAttempts,
		baseDelay:   config.baseDelay(),
		partSize:    partSize,
		workers:     workers,
	}, nil
}

// Governor exposes the admission governor, mainly for observability.
func (e *Engine) Governor() *Governor {
	return e.governor
}

func (e *Engine) retryConfig(t *task) RetryConfig {
	return RetryConfig{
		MaxAttempts: e.maxAttempts,
		BaseDelay:   e.baseDelay,
		Classifier:  DefaultClassifier,
		OnAttempt: func(attempt, remaining int, delay time.Duration) {
			e.logger.WithField("task", t.id).
				WithField("op", string(t.kind)).
				WithField("target", t.target.String()).
				WithField("attempt", attempt).
				WithField("remaining", remaining).
				WithField("delay", delay.String()).
				Warn("Transfer attempt failed, backing off")
		},
	}
}

// Upload streams the reader to the destination object. The payload is
// never buffered whole in memory; the store adapter chunks the write with
// a bounded number of parts in flight. If the reader is not seekable the
// operation runs a single attempt, since a consumed stream cannot be
// replayed.
func (e *Engine) Upload(ctx context.Context, reader io.Reader, size int64, dest objectstore.ObjectRef, contentType string) Result {
	t := newTask(OpPut, dest)

	release, err := e.governor.Acquire(ctx, ClassUpload)
	if err != nil {
		return failure(err)
	}
	defer release()

	if contentType == "" {
		contentType = InferContentType(dest.Key)
	}

	metadata := map[string]string{
		"uploaded-at":   time.Now().UTC().Format(time.RFC3339),
		"original-name": path.Base(dest.Key),
		"size":          strconv.FormatInt(size, 10),
		"task-id":       t.id,
	}

	seeker, rewindable := reader.(io.Seeker)
	cfg := e.retryConfig(t)
	if !rewindable {
		cfg.MaxAttempts = 1
	}

	var location string
	err = Retry(ctx, cfg, func() error {
		t.attempts++
		if t.attempts > 1 {
			if _, serr := seeker.Seek(0, io.SeekStart); serr != nil {
				return fmt.Errorf("rewinding upload source: %w", serr)
			}
		}

		var perr error
		location, perr = e.store.Put(ctx, dest, reader, size, contentType, metadata)
		return perr
	})
	if err != nil {
		e.logger.WithError(err).
			WithField("task", t.id).
			WithField("target", dest.String()).
			Error("Upload failed")
		return failure(err)
	}

	e.logger.WithField("task", t.id).
		WithField("target", dest.String()).
		WithField("size", size).
		WithField("attempts", t.attempts).
		Info("Upload completed")
	return success(location)
}

// DownloadRanged downloads the source object to destPath using parallel
// ranged reads. Parts may complete in any order; each writes only its own
// disjoint byte range, so the final content is deterministic. A part that
// exhausts its retry budget halts further part claims, lets in-flight
// parts finish, removes the partial file, and fails the whole operation.
func (e *Engine) DownloadRanged(ctx context.Context, src objectstore.ObjectRef, destPath string, opts ...DownloadOption) Result {
	options := buildDownloadOptions(opts...)
	partSize := options.PartSize
	if partSize <= 0 {
		partSize = e.partSize
	}
	workers := options.Workers
	if workers <= 0 {
		workers = e.workers
	}

	info, err := e.head(ctx, src)
	if err != nil {
		return failure(err)
	}
	if !info.Exists {
		return failure(objectstore.NewError("Head", src, "", objectstore.ErrNotFound,
			fmt.Errorf("download source does not exist")))
	}

	// Unknown or zero size: fall back to a single whole-object stream.
	if info.Size <= 0 {
		if err := e.streamToFile(ctx, src, destPath); err != nil {
			return failure(err)
		}
		return success(destPath)
	}

	plan, err := NewRangedDownloadPlan(info.Size, partSize, destPath)
	if err != nil {
		return failure(err)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return failure(fmt.Errorf("failed to create destination file: %w", err))
	}

	// Best-effort preallocation; a failure here only costs fragmentation.
	if err := file.Truncate(info.Size); err != nil {
		e.logger.WithError(err).
			WithField("path", destPath).
			Warn("Failed to preallocate destination file")
	}

	e.logger.WithField("source", src.String()).
		WithField("size", info.Size).
		WithField("parts", plan.PartCount).
		WithField("part_size", partSize).
		WithField("workers", workers).
		Debug("Starting ranged download")

	var (
		next      atomic.Int64
		completed atomic.Int64
		halted    atomic.Bool

		mu       sync.Mutex
		partErrs *multierror.Error
	)

	if workers > plan.PartCount {
		workers = plan.PartCount
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				if halted.Load() {
					return
				}
				idx := int(next.Add(1)) - 1
				if idx >= plan.PartCount {
					return
				}

				part := plan.Part(idx)
				if err := e.downloadPart(ctx, src, file, part); err != nil {
					mu.Lock()
					partErrs = multierror.Append(partErrs, fmt.Errorf("part %d: %w", part.Index, err))
					mu.Unlock()
					halted.Store(true)
					return
				}

				done := completed.Add(1)
				if options.Progress != nil {
					options.Progress(int(done), plan.PartCount)
				}
			}
		}()
	}
	wg.Wait()

	if err := partErrs.ErrorOrNil(); err != nil {
		_ = file.Close()
		if rmErr := os.Remove(destPath); rmErr != nil {
			e.logger.WithError(rmErr).
				WithField("path", destPath).
				Warn("Failed to remove partial destination file")
		}
		return failure(fmt.Errorf("%w for %s: %v", ErrPartialWriteAbort, src, err))
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return failure(fmt.Errorf("failed to sync destination file: %w", err))
	}
	if err := file.Close(); err != nil {
		return failure(fmt.Errorf("failed to close destination file: %w", err))
	}

	e.logger.WithField("source", src.String()).
		WithField("path", destPath).
		WithField("parts", plan.PartCount).
		Info("Ranged download completed")
	return success(destPath)
}

// downloadPart fetches one byte range and writes it at its file offset.
// Each attempt cycles through admission so a stuck retry never pins a
// download slot during its backoff sleep.
func (e *Engine) downloadPart(ctx context.Context, src objectstore.ObjectRef, file *os.File, part Part) error {
	t := newTask(OpGetRange, src)

	return Retry(ctx, e.retryConfig(t), func() error {
		t.attempts++

		release, err := e.governor.Acquire(ctx, ClassDownload)
		if err != nil {
			return err
		}
		defer release()

		data, err := e.store.GetRange(ctx, src, part.Start, part.End)
		if err != nil {
			return err
		}
		if int64(len(data)) != part.Length() {
			return fmt.Errorf("part %d size mismatch: expected %d bytes, got %d", part.Index, part.Length(), len(data))
		}

		if _, err := file.WriteAt(data, part.Start); err != nil {
			return fmt.Errorf("writing part %d at offset %d: %w", part.Index, part.Start, err)
		}
		return nil
	})
}

func (e *Engine) streamToFile(ctx context.Context, src objectstore.ObjectRef, destPath string) error {
	t := newTask(OpGet, src)

	return Retry(ctx, e.retryConfig(t), func() error {
		t.attempts++

		release, err := e.governor.Acquire(ctx, ClassDownload)
		if err != nil {
			return err
		}
		defer release()

		reader, err := e.store.Get(ctx, src)
		if err != nil {
			return err
		}
		defer reader.Close()

		file, err := os.Create(destPath)
		if err != nil {
			return fmt.Errorf("failed to create destination file: %w", err)
		}
		defer file.Close()

		if _, err := io.Copy(file, reader); err != nil {
			return fmt.Errorf("failed to stream object: %w", err)
		}
		return nil
	})
}

// Fetch reads a whole object into memory. Intended for small text
// artifacts such as streaming manifests.
func (e *Engine) Fetch(ctx context.Context, ref objectstore.ObjectRef) ([]byte, error) {
	t := newTask(OpGet, ref)

	var data []byte
	err := Retry(ctx, e.retryConfig(t), func() error {
		t.attempts++

		release, err := e.governor.Acquire(ctx, ClassDownload)
		if err != nil {
			return err
		}
		defer release()

		reader, err := e.store.Get(ctx, ref)
		if err != nil {
			return err
		}
		defer reader.Close()

		data, err = io.ReadAll(reader)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Exists probes the object, treating "not found" as false rather than an
// error. Any other failure propagates.
func (e *Engine) Exists(ctx context.Context, ref objectstore.ObjectRef) (bool, error) {
	info, err := e.head(ctx, ref)
	if err != nil {
		return false, err
	}
	return info.Exists, nil
}

func (e *Engine) head(ctx context.Context, ref objectstore.ObjectRef) (objectstore.HeadInfo, error) {
	t := newTask(OpHead, ref)

	var info objectstore.HeadInfo
	err := Retry(ctx, e.retryConfig(t), func() error {
		t.attempts++

		release, err := e.governor.Acquire(ctx, ClassHead)
		if err != nil {
			return err
		}
		defer release()

		var herr error
		info, herr = e.store.Head(ctx, ref)
		return herr
	})
	return info, err
}

// Delete removes the object, reporting whether the delete succeeded.
func (e *Engine) Delete(ctx context.Context, ref objectstore.ObjectRef) (bool, error) {
	t := newTask(OpDelete, ref)

	err := Retry(ctx, e.retryConfig(t), func() error {
		t.attempts++

		release, err := e.governor.Acquire(ctx, ClassDelete)
		if err != nil {
			return err
		}
		defer release()

		return e.store.Delete(ctx, ref)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// PresignedReadURL returns a time-limited read URL for the object.
func (e *Engine) PresignedReadURL(ctx context.Context, ref objectstore.ObjectRef, ttl time.Duration) (string, error) {
	t := newTask(OpGet, ref)

	var url string
	err := Retry(ctx, e.retryConfig(t), func() error {
		t.attempts++

		release, err := e.governor.Acquire(ctx, ClassQuery)
		if err != nil {
			return err
		}
		defer release()

		var perr error
		url, perr = e.store.PresignGet(ctx, ref, ttl)
		return perr
	})
	if err != nil {
		return "", err
	}
	return url, nil
}
