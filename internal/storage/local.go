package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path under which the local backend's objects are served.
const PublicPrefix = "/uploads/"

type localStorage struct {
	dir     string
	baseURL string
}

// NewLocal creates a disk-backed Storage rooted at dir. Objects are served by the HTTP layer
// under PublicPrefix, so URLs take the form <baseURL>/uploads/<key>.
func NewLocal(dir, baseURL string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &localStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *localStorage) fullPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)
	if clean != "/"+key {
		return "", ErrInvalidKey
	}
	return filepath.Join(l.dir, filepath.FromSlash(key)), nil
}

// Put writes to a temp file and renames it into place.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	full, err := l.fullPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return ObjectInfo{}, fmt.Errorf("create object dir: %w", err)
	}

	tmp := full + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("write object: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("fsync object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return ObjectInfo{}, fmt.Errorf("rename object: %w", err)
	}

	st, err := os.Stat(full)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          key,
		Size:         size,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func (l *localStorage) Delete(_ context.Context, key string) error {
	full, err := l.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (l *localStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			ContentType:  mime.TypeByExtension(path.Ext(key)),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return out, nil
}

func (l *localStorage) URL(key string) string {
	return l.baseURL + PublicPrefix + key
}

// KeyFromURL accepts any host as long as the path lies under PublicPrefix, so records written
// before a base URL change still resolve.
func (l *localStorage) KeyFromURL(rawURL string) (string, bool) {
	if l.baseURL != "" && strings.HasPrefix(rawURL, l.baseURL+PublicPrefix) {
		key := strings.TrimPrefix(rawURL, l.baseURL+PublicPrefix)
		return key, key != ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasPrefix(u.Path, PublicPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(u.Path, PublicPrefix)
	if key == "" {
		return "", false
	}
	return key, true
}
