package binaries

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/quorumengineering/quorum-wizard/metrics"
	"github.com/quorumengineering/quorum-wizard/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrDownloadFailed = errors.New("download failed")

// Registry maps tool names to resolved executables.
type Registry struct {
	lock  sync.RWMutex
	paths map[string]string
}

func NewRegistry() *Registry {
	return &Registry{paths: map[string]string{}}
}

func (r *Registry) Set(tool, path string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.paths[tool] = path
}

func (r *Registry) Get(tool string) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p, ok := r.paths[tool]
	return p, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.paths))
	for name := range r.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Provisioner struct {
	log       *zap.Logger
	cacheHome string
	client    *http.Client
	metrics   metrics.Metricer
}

func NewProvisioner(log *zap.Logger, cacheHome string, client *http.Client, m metrics.Metricer) *Provisioner {
	if client == nil {
		client = http.DefaultClient
	}
	if m == nil {
		m = metrics.NoopMetrics
	}
	return &Provisioner{
		log:       log,
		cacheHome: cacheHome,
		client:    client,
		metrics:   m,
	}
}

// DownloadAll makes sure every tool is in the cache. Tools are fetched
// concurrently and every failure is reported. The registry holds the tools
// that are available.
func (p *Provisioner) DownloadAll(ctx context.Context, tools []Tool) (*Registry, error) {
	registry := NewRegistry()
	errs := make([]error, len(tools))
	eg := errgroup.Group{}
	for i, tool := range tools {
		i, tool := i, tool
		eg.Go(func() error {
			path, err := p.downloadIfMissing(ctx, tool)
			if err != nil {
				p.metrics.RecordDownload(tool.Name, metrics.DownloadFailed)
				errs[i] = errors.Wrapf(err, "%s", tool)
				return nil
			}
			registry.Set(tool.Name, path)
			return nil
		})
	}
	_ = eg.Wait()
	return registry, multierr.Combine(errs...)
}

func (p *Provisioner) downloadIfMissing(ctx context.Context, tool Tool) (string, error) {
	path := tool.CachePath(p.cacheHome)
	if utils.FileExists(path) {
		p.log.Debug("using cached binary", zap.String("tool", tool.String()), zap.String("path", path))
		p.metrics.RecordDownload(tool.Name, metrics.DownloadCached)
		return path, nil
	}
	p.log.Info("downloading", zap.String("tool", tool.String()), zap.String("url", tool.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tool.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrDownloadFailed, "%v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrDownloadFailed, "GET %s: %s", tool.URL, resp.Status)
	}

	var src io.Reader = resp.Body
	if tool.Archived {
		if src, err = findInArchive(resp.Body, tool.BinaryName); err != nil {
			return "", err
		}
	}
	if err := writeAtomic(path, src); err != nil {
		return "", err
	}
	p.metrics.RecordDownload(tool.Name, metrics.DownloadFetched)
	return path, nil
}

// findInArchive returns a reader positioned at [name] inside a .tar.gz stream.
func findInArchive(r io.Reader, name string) (io.Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(ErrDownloadFailed, err.Error())
	}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errors.Wrapf(ErrDownloadFailed, "%q not found in archive", name)
		}
		if err != nil {
			return nil, errors.Wrap(ErrDownloadFailed, err.Error())
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name {
			return tr, nil
		}
	}
}

// writeAtomic stores [src] at [path] through a temporary file so a cache
// entry is either complete or absent.
func writeAtomic(path string, src io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, utils.DefaultDirPerms); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "couldn't write %q", path)
	}
	if err := tmp.Chmod(0o755); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
