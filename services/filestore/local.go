package filestoresvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
)

// localService writes uploads to a directory on disk and serves them back
// under the configured base URL.
type localService struct {
	root    string
	baseURL string
}

var _ core.FileService = (*localService)(nil)

func NewLocalService(conf *core.Config) core.FileService {
	root := conf.FileStore.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(conf.WorkDir, root)
	}
	return &localService{
		root:    root,
		baseURL: strings.TrimSuffix(conf.FileStore.BaseURL, "/"),
	}
}

func (svc *localService) Upload(ctx context.Context, dir, filename string, src io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	// a random prefix keeps concurrent uploads of the same name apart
	name := uuid.New().String() + "-" + filepath.Base(filename)
	rel := filepath.Join(filepath.Base(dir), name)

	fp := filepath.Join(svc.root, rel)
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	dst, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing upload")
	}
	return svc.baseURL + "/" + filepath.ToSlash(rel), nil
}

func (svc *localService) Delete(ctx context.Context, url string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !strings.HasPrefix(url, svc.baseURL+"/") {
		return errors.New("file URL not managed by this store")
	}
	rel := strings.TrimPrefix(url, svc.baseURL+"/")

	fp := filepath.Join(svc.root, filepath.FromSlash(rel))
	if err := os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting upload")
	}
	return nil
}
