// Package cache runs jobs at most once per cache key and reuses their published outputs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Result describes how a job's output was obtained.
type Result struct {
	// Key is the job's cache key. It is empty in fallback mode.
	Key domain.CacheKey
	// Output is the path of the produced file, always the job's own output path.
	Output string
	// Cached is true when no execution happened.
	Cached bool
	// Remote is true when the output was downloaded from the remote cache.
	Remote bool
}

// Executor wraps job execution with the persistent cache. It is safe for concurrent use:
// callers with the same key share one execution, different keys never wait on each other.
type Executor struct {
	store     ports.CacheStore
	locker    ports.KeyLocker
	verifier  ports.Verifier
	remote    ports.RemoteCache
	telemetry ports.Telemetry
	logger    ports.Logger
	enabled   bool

	group singleflight.Group
	now   func() time.Time
}

// NewExecutor creates an Executor. A nil store or enabled=false selects fallback mode, where
// every call runs the job with the same output semantics and nothing is recorded.
// The remote cache is optional.
func NewExecutor(
	store ports.CacheStore,
	locker ports.KeyLocker,
	verifier ports.Verifier,
	remote ports.RemoteCache,
	telemetry ports.Telemetry,
	logger ports.Logger,
	enabled bool,
) *Executor {
	return &Executor{
		store:     store,
		locker:    locker,
		verifier:  verifier,
		remote:    remote,
		telemetry: telemetry,
		logger:    logger,
		enabled:   enabled && store != nil,
		now:       time.Now,
	}
}

// Enabled reports whether executions are recorded.
func (e *Executor) Enabled() bool {
	return e.enabled
}

// Execute runs job unless a verified entry for its key exists.
// On failure the job's output is removed and no entry is registered.
func (e *Executor) Execute(ctx context.Context, job ports.Job) (Result, error) {
	ctx, vertex := e.telemetry.Record(ctx, job.Name())

	res, err := e.execute(ctx, job)
	if err != nil {
		vertex.Complete(err)
		return Result{}, zerr.With(err, "job", job.Name())
	}
	if res.Cached {
		vertex.Cached()
	}
	vertex.Complete(nil)
	return res, nil
}

func (e *Executor) execute(ctx context.Context, job ports.Job) (Result, error) {
	if !e.enabled {
		if _, err := e.run(ctx, job); err != nil {
			return Result{}, err
		}
		return Result{Output: job.Output()}, nil
	}

	key, err := job.Key(ctx)
	if err != nil {
		return Result{}, domain.Classify(domain.ErrKeyComputationFailed, err)
	}
	if !key.Valid() {
		return Result{}, zerr.With(zerr.Wrap(domain.ErrKeyComputationFailed, "malformed cache key"), "key", key.String())
	}

	res, err := e.shared(ctx, job, key)
	if err != nil {
		return Result{}, err
	}
	if res.Output != job.Output() {
		if err := copyFileAtomic(res.Output, job.Output()); err != nil {
			return Result{}, err
		}
		res.Output = job.Output()
	}
	return res, nil
}

// shared joins or starts the single execution for key. An execution that failed only because
// its leader was cancelled is started again for callers whose own context is still live.
func (e *Executor) shared(ctx context.Context, job ports.Job, key domain.CacheKey) (Result, error) {
	for {
		leader := false
		v, err, _ := e.group.Do(key.String(), func() (any, error) {
			leader = true
			return e.executeLocked(ctx, job, key)
		})
		if err != nil {
			if !leader && isContextError(err) && ctx.Err() == nil {
				e.logger.Debug(fmt.Sprintf("%s: shared execution was cancelled, retrying", job.Name()))
				continue
			}
			return Result{}, err
		}

		res := v.(Result)
		if !leader {
			res.Cached = true
		}
		return res, nil
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (e *Executor) executeLocked(ctx context.Context, job ports.Job, key domain.CacheKey) (Result, error) {
	unlock, err := e.locker.Lock(ctx, key)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			e.logger.Warn(fmt.Sprintf("failed to release cache lock for %s: %v", key, err))
		}
	}()

	if entry, ok := e.lookup(key); ok {
		e.logger.Debug(fmt.Sprintf("%s: up to date (%s)", job.Name(), key))
		return Result{Key: key, Output: entry.Output, Cached: true}, nil
	}

	if entry := e.fetchRemote(ctx, job, key); entry != nil {
		e.logger.Info(fmt.Sprintf("%s: downloaded from remote cache", job.Name()))
		return Result{Key: key, Output: entry.Output, Cached: true, Remote: true}, nil
	}

	e.logger.Info(fmt.Sprintf("%s: running", job.Name()))
	entry, err := e.run(ctx, job)
	if err != nil {
		return Result{}, err
	}
	entry.Key = key

	if err := e.store.Put(entry); err != nil {
		e.logger.Warn(fmt.Sprintf("failed to record cache entry for %s: %v", job.Name(), err))
	} else if e.remote != nil {
		if err := e.remote.Push(ctx, entry); err != nil {
			e.logger.Warn(fmt.Sprintf("failed to upload %s to remote cache: %v", job.Name(), err))
		}
	}
	return Result{Key: key, Output: entry.Output}, nil
}

// lookup returns a verified entry. Entries that fail verification are deleted.
func (e *Executor) lookup(key domain.CacheKey) (*domain.CacheEntry, bool) {
	entry, err := e.store.Get(key)
	if err != nil {
		e.heal(key, err)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	digest, err := e.verifier.Digest(entry.Output)
	if err != nil {
		e.heal(key, zerr.With(domain.Classify(domain.ErrCacheIntegrity, err), "output", entry.Output))
		return nil, false
	}
	if digest != entry.OutputDigest {
		err := zerr.Wrap(domain.ErrCacheIntegrity, "output digest changed since it was recorded")
		e.heal(key, zerr.With(err, "output", entry.Output))
		return nil, false
	}
	return entry, true
}

func (e *Executor) heal(key domain.CacheKey, cause error) {
	e.logger.Warn(fmt.Sprintf("discarding cache entry %s: %v", key, cause))
	if err := e.store.Delete(key); err != nil {
		e.logger.Warn(fmt.Sprintf("failed to delete cache entry %s: %v", key, err))
	}
}

func (e *Executor) fetchRemote(ctx context.Context, job ports.Job, key domain.CacheKey) *domain.CacheEntry {
	if e.remote == nil {
		return nil
	}
	entry, err := e.remote.Fetch(ctx, key, job.Output())
	if err != nil {
		e.logger.Warn(fmt.Sprintf("remote cache lookup for %s failed: %v", job.Name(), err))
		return nil
	}
	if entry == nil {
		return nil
	}
	entry.Key = key
	entry.Job = job.Name()
	entry.Timestamp = e.now()
	if err := e.store.Put(*entry); err != nil {
		e.logger.Warn(fmt.Sprintf("failed to record cache entry for %s: %v", job.Name(), err))
	}
	return entry
}

// run executes the job from a clean output path and describes what it produced.
func (e *Executor) run(ctx context.Context, job ports.Job) (domain.CacheEntry, error) {
	out := job.Output()
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.CacheEntry{}, zerr.With(domain.Classify(domain.ErrJobFailed, err), "output", out)
	}
	if err := os.MkdirAll(filepath.Dir(out), domain.DirPerm); err != nil {
		return domain.CacheEntry{}, zerr.With(domain.Classify(domain.ErrJobFailed, err), "output", out)
	}

	err := job.Run(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(out)
		return domain.CacheEntry{}, domain.Classify(domain.ErrJobFailed, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return domain.CacheEntry{}, zerr.With(zerr.Wrap(domain.ErrJobFailed, "job produced no output"), "output", out)
	}
	if !e.enabled {
		return domain.CacheEntry{Output: out}, nil
	}

	digest, err := e.verifier.Digest(out)
	if err != nil {
		_ = os.Remove(out)
		return domain.CacheEntry{}, err
	}
	return domain.CacheEntry{
		Job:          job.Name(),
		Output:       out,
		OutputDigest: digest,
		Size:         info.Size(),
		Timestamp:    e.now(),
	}, nil
}

// copyFileAtomic materializes a cached output at another path.
func copyFileAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrCacheIntegrity, err), "output", src)
	}
	defer func() {
		_ = in.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return zerr.With(domain.Classify(domain.ErrJobFailed, err), "output", dst)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return zerr.With(domain.Classify(domain.ErrJobFailed, err), "output", dst)
	}
	tmpName := tmp.Name()

	_, err = io.Copy(tmp, in)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, domain.FilePerm)
	}
	if err == nil {
		err = os.Rename(tmpName, dst)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(domain.Classify(domain.ErrJobFailed, err), "output", dst)
	}
	return nil
}
