// internal/service/backup/manager.go
package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/backup"
	xerrors "panel-service/internal/pkg/errors"

	"go.uber.org/zap"
)

const (
	archiveExt    = ".zip"
	archiveLayout = "2006-01-02-15-04-05"
	subjectType   = "Backup"
)

// Dumper writes a database-only dump to w
type Dumper interface {
	Dump(ctx context.Context, w io.Writer) error
	Database() string
}

// Mirror keeps an off-site copy of each archive
type Mirror interface {
	Upload(ctx context.Context, name, path string) error
	Remove(ctx context.Context, name string) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, e *activity.Entry) error
}

type ManagerConfig struct {
	// Dir holds the archives, e.g. storage/app/private/<APP_NAME>
	Dir string
	// DownloadBase prefixes each archive's download reference
	DownloadBase string
}

type Manager struct {
	dir          string
	downloadBase string
	dumper       Dumper
	mirror       Mirror
	activity     ActivityRecorder
	logger       *zap.Logger
	now          func() time.Time

	mu sync.Mutex
}

// NewManager builds a Manager. mirror and activity may be nil.
func NewManager(cfg ManagerConfig, dumper Dumper, mirror Mirror, activity ActivityRecorder, logger *zap.Logger) *Manager {
	return &Manager{
		dir:          filepath.Clean(cfg.Dir),
		downloadBase: strings.TrimRight(cfg.DownloadBase, "/"),
		dumper:       dumper,
		mirror:       mirror,
		activity:     activity,
		logger:       logger,
		now:          time.Now,
	}
}

// Run dumps the database into a new archive. Only one run is in flight at a
// time; a concurrent call fails with ErrConflict instead of waiting.
func (m *Manager) Run(ctx context.Context, actorID int64) (*backup.Archive, error) {
	if !m.mu.TryLock() {
		return nil, fmt.Errorf("backup already running: %w", xerrors.ErrConflict)
	}
	defer m.mu.Unlock()

	start := m.now()

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	name, err := m.nextName(start)
	if err != nil {
		return nil, err
	}

	if err := m.writeArchive(ctx, name, start); err != nil {
		m.logger.Error("backup failed", zap.String("file", name), zap.Error(err))
		return nil, err
	}

	path := filepath.Join(m.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	archive := m.toArchive(name, info)

	m.logger.Info("backup created",
		zap.String("file", name),
		zap.Int64("size", archive.Size),
		zap.Duration("took", m.now().Sub(start)),
	)

	if m.mirror != nil {
		if err := m.mirror.Upload(ctx, name, path); err != nil {
			m.logger.Warn("failed to mirror backup", zap.String("file", name), zap.Error(err))
		}
	}

	m.record(ctx, actorID, "backup created", map[string]any{
		"file": name,
		"size": archive.Size,
	})

	return archive, nil
}

// List returns every archive, newest first
func (m *Manager) List(ctx context.Context) ([]backup.Archive, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []backup.Archive{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	archives := []backup.Archive{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), archiveExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		archives = append(archives, *m.toArchive(e.Name(), info))
	}

	sort.Slice(archives, func(i, j int) bool {
		a, b := archives[i], archives[j]
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		return a.Name < b.Name
	})

	return archives, nil
}

// Resolve maps a client-supplied archive name to its path inside the backup
// directory. Anything that is not a plain archive name, or does not exist as a
// regular file, is reported as not found.
func (m *Manager) Resolve(name string) (string, error) {
	notFound := xerrors.NotFound("backup", name)

	if !validName(name) {
		return "", notFound
	}

	path := filepath.Join(m.dir, name)
	rel, err := filepath.Rel(m.dir, path)
	if err != nil || rel != name {
		return "", notFound
	}

	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", notFound
	}

	return path, nil
}

// Delete removes an archive and its mirrored copy
func (m *Manager) Delete(ctx context.Context, actorID int64, name string) error {
	path, err := m.Resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return xerrors.NotFound("backup", name)
		}
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	m.logger.Info("backup deleted", zap.String("file", name), zap.Int64("actor_id", actorID))

	if m.mirror != nil {
		if err := m.mirror.Remove(ctx, name); err != nil {
			m.logger.Warn("failed to remove mirrored backup", zap.String("file", name), zap.Error(err))
		}
	}

	m.record(ctx, actorID, "backup deleted", map[string]any{"file": name})

	return nil
}

// ========== Helpers ==========

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || strings.ContainsRune(name, 0) {
		return false
	}
	if filepath.Base(name) != name {
		return false
	}
	return strings.HasSuffix(name, archiveExt) && len(name) > len(archiveExt)
}

// nextName picks the timestamped name, suffixing -1, -2... when a run in the
// same second already produced one
func (m *Manager) nextName(t time.Time) (string, error) {
	base := t.Format(archiveLayout)
	for i := 0; i < 100; i++ {
		name := base + archiveExt
		if i > 0 {
			name = base + "-" + strconv.Itoa(i) + archiveExt
		}
		_, err := os.Lstat(filepath.Join(m.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check backup name: %w", err)
		}
	}
	return "", fmt.Errorf("no free backup name for %s: %w", base, xerrors.ErrConflict)
}

// writeArchive streams the dump into a temp file and renames it into place
// so List never sees a partial archive
func (m *Manager) writeArchive(ctx context.Context, name string, modified time.Time) (err error) {
	tmp, err := os.CreateTemp(m.dir, "."+name+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     "db-dumps/postgresql-" + m.dumper.Database() + ".sql",
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}

	if err = m.dumper.Dump(ctx, entry); err != nil {
		return fmt.Errorf("failed to dump database: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}

	if err = os.Rename(tmp.Name(), filepath.Join(m.dir, name)); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

func (m *Manager) toArchive(name string, info fs.FileInfo) *backup.Archive {
	return &backup.Archive{
		Name:         name,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		DownloadURL:  m.downloadBase + "/" + url.PathEscape(name),
	}
}

func (m *Manager) record(ctx context.Context, actorID int64, description string, props map[string]any) {
	if m.activity == nil {
		return
	}

	entry := &activity.Entry{
		LogName:     activity.LogBackup,
		Description: description,
		SubjectType: subjectType,
		Properties:  props,
	}
	if actorID > 0 {
		entry.CauserID = &actorID
	}

	if err := m.activity.Record(ctx, entry); err != nil {
		m.logger.Warn("failed to record backup activity", zap.String("description", description), zap.Error(err))
	}
}
