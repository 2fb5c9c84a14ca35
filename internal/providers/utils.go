package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lxc/incus/v6/shared/revert"
)

// downloadChunkSize is the amount of data copied between progress updates.
const downloadChunkSize = 8 * 1024

// downloadAsset streams assetURL into a temporary file next to target and renames it
// into place once the whole body has been received.
func downloadAsset(ctx context.Context, client *http.Client, assetURL string, target string, progressFunc func(int)) error {
	// Prepare the request.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return errors.New("unable to create http request: " + err.Error())
	}

	// Get a reader for the release asset.
	resp, err := client.Do(req)
	if err != nil {
		return errors.New("unable to get http response: " + err.Error())
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected HTTP status: " + resp.Status)
	}

	reverter := revert.New()
	defer reverter.Fail()

	// Create the temporary file.
	fd, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.partial")
	if err != nil {
		return err
	}

	reverter.Add(func() {
		_ = fd.Close()
		_ = os.Remove(fd.Name())
	})

	progress := newProgressTracker(resp.ContentLength, progressFunc)
	progress.start()

	// Read the body in fixed size chunks to report progress.
	for {
		n, err := io.CopyN(fd, resp.Body, downloadChunkSize)
		progress.add(n)

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return errors.New("io.CopyN() error: " + err.Error())
		}
	}

	if resp.ContentLength > 0 && progress.received != resp.ContentLength {
		return fmt.Errorf("short download: received %d of %d bytes", progress.received, resp.ContentLength)
	}

	err = fd.Close()
	if err != nil {
		return err
	}

	err = os.Rename(fd.Name(), target)
	if err != nil {
		return err
	}

	reverter.Success()
	progress.finish()

	return nil
}

// progressTracker turns byte counts into non-decreasing percentages.
type progressTracker struct {
	total    int64
	received int64
	last     int

	progressFunc func(int)
}

func newProgressTracker(total int64, progressFunc func(int)) *progressTracker {
	return &progressTracker{
		total:        total,
		last:         -1,
		progressFunc: progressFunc,
	}
}

func (p *progressTracker) start() {
	p.emit(0)
}

func (p *progressTracker) add(n int64) {
	p.received += n

	// Without a declared length only the start and end are reported.
	if p.total <= 0 {
		return
	}

	p.emit(int(min(p.received*100/p.total, 100)))
}

func (p *progressTracker) finish() {
	p.emit(100)
}

func (p *progressTracker) emit(percent int) {
	if percent <= p.last {
		return
	}

	p.last = percent

	if p.progressFunc != nil {
		p.progressFunc(percent)
	}
}
