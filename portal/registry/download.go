package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	getter "github.com/hashicorp/go-getter"
)

// DefaultDownloadTimeout bounds a registry download when the caller context has no deadline.
const DefaultDownloadTimeout = 120 * time.Second

// Download fetches a registry file from src into dst.
//
// Params:
//   - src: any go-getter source, e.g. "https://example.org/registry.toml" or
//     "github.com/org/repo//registry/registry.toml"
//   - dst: path of the file to write, parent directories are created
//
// Returns:
//   - error: if the file cannot be downloaded
func Download(ctx context.Context, src, dst string) error {
	if src == "" {
		return fmt.Errorf("registry source is empty")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDownloadTimeout)
		defer cancel()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to download registry: %w", err)
	}
	return nil
}
