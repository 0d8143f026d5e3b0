// Package asset turns uploaded image files into durable public URLs and removes them again.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"propertyapi/internal/storage"
)

// KeyPrefix namespaces every object written by the Manager.
const KeyPrefix = "properties/"

const maxNameLen = 100

// ErrAssetStore is returned when an uploaded file could not be written to the blob store.
var ErrAssetStore = errors.New("asset store failed")

// File is one uploaded file as received by the transport layer.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// ReclaimResult summarizes a Reclaim or RemoveKeys call.
type ReclaimResult struct {
	Removed int
	Skipped int
	Failed  int
}

// Manager stores and reclaims property images on a storage backend.
type Manager struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time

	stored    prometheus.Counter
	reclaimed *prometheus.CounterVec
}

// NewManager creates a Manager and registers its metrics with reg.
func NewManager(store storage.Storage, logger *slog.Logger, reg prometheus.Registerer) (*Manager, error) {
	m := &Manager{
		store:  store,
		logger: logger.With(slog.String("component", "asset")),
		now:    time.Now,
		stored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "property_assets_stored_total",
			Help: "Total number of image files written to the blob store.",
		}),
		reclaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "property_assets_reclaimed_total",
			Help: "Total number of image reclaim attempts by result.",
		}, []string{"result"}),
	}
	if err := reg.Register(m.stored); err != nil {
		return nil, err
	}
	if err := reg.Register(m.reclaimed); err != nil {
		return nil, err
	}
	return m, nil
}

// Store writes each file to the blob store and returns their public URLs in input order.
// On failure it returns the URLs stored so far together with an error wrapping ErrAssetStore.
func (m *Manager) Store(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := m.newKey(f.Name)
		if err := m.put(ctx, key, f); err != nil {
			m.logger.Error("asset_store_failed",
				slog.String("file", f.Name),
				slog.String("key", key),
				slog.String("error_message", err.Error()),
			)
			return urls, fmt.Errorf("%w: %s: %w", ErrAssetStore, f.Name, err)
		}
		m.stored.Inc()
		urls = append(urls, m.store.URL(key))
	}
	return urls, nil
}

func (m *Manager) put(ctx context.Context, key string, f File) error {
	if f.Open == nil {
		return errors.New("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	size := f.Size
	if size <= 0 {
		size = -1
	}
	_, err = m.store.Put(ctx, key, rc, storage.PutObjectOptions{
		Size:        size,
		ContentType: f.ContentType,
		Metadata:    map[string]string{"original-name": f.Name},
	})
	return err
}

// Reclaim removes the objects behind urls. URLs not issued by the backend are skipped;
// failures are logged and never stop the remaining removals.
func (m *Manager) Reclaim(ctx context.Context, urls []string) ReclaimResult {
	var (
		res  ReclaimResult
		keys []string
	)
	for _, u := range urls {
		key, ok := m.store.KeyFromURL(u)
		if !ok {
			res.Skipped++
			m.reclaimed.WithLabelValues("skipped").Inc()
			m.logger.Warn("asset_reclaim_skipped", slog.String("url", u), slog.String("reason", "foreign url"))
			continue
		}
		keys = append(keys, key)
	}
	r := m.RemoveKeys(ctx, keys)
	res.Removed += r.Removed
	res.Failed += r.Failed
	return res
}

// RemoveKeys deletes the given object keys, continuing past failures.
func (m *Manager) RemoveKeys(ctx context.Context, keys []string) ReclaimResult {
	var res ReclaimResult
	for _, key := range keys {
		if err := m.store.Delete(ctx, key); err != nil {
			res.Failed++
			m.reclaimed.WithLabelValues("failed").Inc()
			m.logger.Error("asset_reclaim_failed",
				slog.String("key", key),
				slog.String("error_message", err.Error()),
			)
			continue
		}
		res.Removed++
		m.reclaimed.WithLabelValues("removed").Inc()
	}
	return res
}

// Objects lists every object the Manager has written.
func (m *Manager) Objects(ctx context.Context) ([]storage.ObjectInfo, error) {
	return m.store.List(ctx, KeyPrefix)
}

// Key returns the object key behind a URL issued by the backend.
func (m *Manager) Key(url string) (string, bool) {
	return m.store.KeyFromURL(url)
}

func (m *Manager) newKey(name string) string {
	return fmt.Sprintf("%s%d-%s-%s", KeyPrefix, m.now().UnixMilli(), uuid.NewString()[:8], SanitizeName(name))
}

// SanitizeName reduces an uploaded file name to a safe object name. Only letters, digits,
// dot, dash and underscore survive; everything else becomes an underscore.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if len(s) > maxNameLen {
		s = s[len(s)-maxNameLen:]
	}
	if s == "" {
		return "file"
	}
	return s
}
