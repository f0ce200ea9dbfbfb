// Package audioprobe detects Dutch audio tracks in media files using
// ffprobe. Library metadata from Plex does not reliably carry audio
// language, so duplicate resolution probes the files directly.
package audioprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const probeTimeout = 30 * time.Second

// nlLanguageTags are the ISO language codes Dutch audio tracks carry.
var nlLanguageTags = map[string]bool{
	"nl":  true,
	"nld": true,
	"dut": true,
}

// Service probes media files for audio track languages.
type Service struct {
	binaryPath string
	logger     zerolog.Logger
}

// NewService creates an audio probe service. An explicit ffprobe path
// overrides PATH lookup.
func NewService(explicitPath string, logger zerolog.Logger) *Service {
	return &Service{
		binaryPath: findExecutable("ffprobe", explicitPath),
		logger:     logger.With().Str("component", "audioprobe").Logger(),
	}
}

// Available reports whether an ffprobe binary was found.
func (s *Service) Available() bool {
	return s.binaryPath != ""
}

// HasNLAudio reports whether the file has a Dutch audio track. Probe
// failures degrade to false rather than failing the scan; a missing
// language tag is indistinguishable from a foreign one anyway.
func (s *Service) HasNLAudio(ctx context.Context, path string) bool {
	if !s.Available() || path == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binaryPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Debug().Err(err).Str("path", path).Str("stderr", stderr.String()).Msg("ffprobe failed")
		return false
	}

	has, err := parseNLAudio(stdout.Bytes())
	if err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("failed to parse ffprobe output")
		return false
	}
	return has
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Tags      struct {
			Language string `json:"language"`
			Title    string `json:"title"`
		} `json:"tags"`
	} `json:"streams"`
}

// parseNLAudio inspects ffprobe stream JSON for a Dutch audio track,
// matching either the language tag or a descriptive title.
func parseNLAudio(data []byte) (bool, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return false, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, stream := range out.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		if nlLanguageTags[strings.ToLower(stream.Tags.Language)] {
			return true, nil
		}
		title := strings.ToLower(stream.Tags.Title)
		if strings.Contains(title, "nederlands") || strings.Contains(title, "dutch") {
			return true, nil
		}
	}
	return false, nil
}

// findExecutable finds an executable by name or explicit path.
func findExecutable(name, explicitPath string) string {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "darwin":
		commonPaths = []string{
			"/usr/local/bin/" + name,
			"/opt/homebrew/bin/" + name,
		}
	case "linux":
		commonPaths = []string{
			"/usr/bin/" + name,
			"/usr/local/bin/" + name,
		}
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\` + name + ".exe",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
