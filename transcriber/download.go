package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"audioshift/events"
)

var downloadInProgress atomic.Bool

// ErrDownloadBusy reports that another model download is in flight.
var ErrDownloadBusy = errors.New("a model download is already in progress")

func IsDownloading() bool {
	return downloadInProgress.Load()
}

// EnsureModel downloads any missing files of the model, publishing
// progress events. Only one download runs at a time; a concurrent call
// fails with ErrDownloadBusy rather than silently skipping the fetch.
func EnsureModel(ctx context.Context, bus *events.Bus, modelID string) error {
	if ModelReady(modelID) {
		return nil
	}
	if !downloadInProgress.CompareAndSwap(false, true) {
		return ErrDownloadBusy
	}
	defer downloadInProgress.Store(false)
	return ensureModel(ctx, bus, modelID)
}

func ensureModel(ctx context.Context, bus *events.Bus, modelID string) error {
	def, ok := FindModel(modelID)
	if !ok {
		return fmt.Errorf("unknown model: %s", modelID)
	}

	dir := ModelDir(modelID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	var cumulative int64
	for _, file := range def.Files {
		dest := filepath.Join(dir, file.destName())
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		n, err := downloadFile(ctx, bus, file, dest, modelID, def.ApproxBytes, cumulative)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", file.destName(), err)
		}
		cumulative += n
	}

	if bus != nil {
		bus.Publish(events.ModelDownload{
			ModelID:    modelID,
			File:       "complete",
			Downloaded: cumulative,
			Total:      def.ApproxBytes,
			Progress:   100,
		})
	}
	return nil
}

func downloadFile(ctx context.Context, bus *events.Bus, file ModelFile, dest, modelID string, approxTotal, offset int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Download to a temp name; rename on completion so a partial file
	// never counts as ready.
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	var downloaded int64
	lastPct := -1
	buf := make([]byte, 256*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				os.Remove(tmp)
				return downloaded, werr
			}
			downloaded += int64(n)

			if bus != nil && approxTotal > 0 {
				pct := min(int((offset+downloaded)*100/approxTotal), 99)
				if pct != lastPct {
					lastPct = pct
					bus.Publish(events.ModelDownload{
						ModelID:    modelID,
						File:       file.destName(),
						Downloaded: downloaded,
						Total:      resp.ContentLength,
						Progress:   pct,
					})
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(tmp)
			return downloaded, readErr
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return downloaded, err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return downloaded, err
	}
	return downloaded, nil
}

// DeleteModel removes the model's files from disk.
func DeleteModel(modelID string) error {
	if _, ok := FindModel(modelID); !ok {
		return fmt.Errorf("unknown model: %s", modelID)
	}
	dir := ModelDir(modelID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.RemoveAll(dir)
}
