package engine

import (
	"context"
	"io"

	containertypes "github.com/docker/docker/api/types/container"

	"github.com/opensandbox/codebroker/internal/metrics"
)

// PutArchive extracts the TAR stream tarReader into destDir inside the
// container. The reader must contain a well-formed TAR stream; building
// one is the Tar Codec's job, not this package's.
func (c *Client) PutArchive(ctx context.Context, h Handle, destDir string, tarReader io.Reader) error {
	defer metrics.ObserveEngineOp("put_archive")()

	opts := containertypes.CopyToContainerOptions{}
	if err := c.docker.CopyToContainer(ctx, string(h), destDir, tarReader, opts); err != nil {
		return classify("put_archive", err)
	}
	return nil
}

// GetArchive returns a TAR stream of the file or directory at srcPath
// inside the container. The caller must close the returned reader.
func (c *Client) GetArchive(ctx context.Context, h Handle, srcPath string) (io.ReadCloser, error) {
	defer metrics.ObserveEngineOp("get_archive")()

	rc, _, err := c.docker.CopyFromContainer(ctx, string(h), srcPath)
	if err != nil {
		return nil, classify("get_archive", err)
	}
	return rc, nil
}
