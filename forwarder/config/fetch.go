package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	getter "github.com/hashicorp/go-getter"
)

// FetchContractConfig downloads a contract config from src into dstDir and returns the
// local path. src may be any go-getter source: an http(s) URL, a local path or a GitHub file.
// The extension of src is kept so LoadContractConfig picks the right format.
func FetchContractConfig(ctx context.Context, src, dstDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	ext := ".toml"
	if path.Ext(strings.SplitN(src, "?", 2)[0]) == ".json" {
		ext = ".json"
	}
	dst := filepath.Join(dstDir, "contract"+ext)

	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
			&getter.FileDetector{},
		},
		Getters: map[string]getter.Getter{
			"file":  &getter.FileGetter{Copy: true},
			"http":  &getter.HttpGetter{},
			"https": &getter.HttpGetter{},
			"git":   &getter.GitGetter{},
		},
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("failed to download contract config: %w", err)
	}
	return dst, nil
}
