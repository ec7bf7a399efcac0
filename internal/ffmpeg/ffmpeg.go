// Package ffmpeg wraps the external ffprobe/ffmpeg tools behind a small
// interface. Every invocation carries its own hard timeout so a hung tool
// never blocks a check cycle indefinitely.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

// ProbeResult holds the format-level metadata reported by ffprobe.
type ProbeResult struct {
	Duration float64 `json:"duration"`
	BitRate  int64   `json:"bit_rate"`
	Format   string  `json:"format"`
}

// Runner abstracts the external media tools so the pipeline can be tested
// without ffmpeg installed.
type Runner interface {
	// Probe runs ffprobe against the URL and returns format metadata.
	Probe(ctx context.Context, rawURL string) (*ProbeResult, error)
	// ExtractFrame extracts a single still frame at the given offset,
	// scaled to width x height, writing it to outPath.
	ExtractFrame(ctx context.Context, rawURL, outPath string, offset time.Duration, width, height int) error
	// Transcode converts an image source to a scaled JPEG at outPath.
	Transcode(ctx context.Context, rawURL, outPath string, width, height int) error
}

// Config configures an ExecRunner.
type Config struct {
	FFmpegPath      string
	FFprobePath     string
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
}

// ExecRunner invokes the real ffprobe/ffmpeg binaries via os/exec.
type ExecRunner struct {
	cfg Config
	log logger.Logger
}

// NewExecRunner creates a runner for the configured binaries.
func NewExecRunner(cfg Config, log logger.Logger) *ExecRunner {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 15 * time.Second
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	return &ExecRunner{cfg: cfg, log: log}
}

func (r *ExecRunner) Probe(ctx context.Context, rawURL string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		rawURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.log.Debug("ffprobe finished",
		logger.String("url", rawURL),
		logger.Duration("took", time.Since(start)),
		logger.Bool("ok", err == nil),
	)
	if err != nil {
		return nil, toolError("ffprobe", err, stderr.String())
	}

	result, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrToolFailure, err)
	}
	return result, nil
}

func (r *ExecRunner) ExtractFrame(ctx context.Context, rawURL, outPath string, offset time.Duration, width, height int) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath,
		"-y",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", rawURL,
		"-frames:v", "1",
		"-vf", scaleFilter(width, height),
		outPath,
	)
	return r.runGenerate(cmd, rawURL)
}

func (r *ExecRunner) Transcode(ctx context.Context, rawURL, outPath string, width, height int) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath,
		"-y",
		"-i", rawURL,
		"-frames:v", "1",
		"-vf", scaleFilter(width, height),
		outPath,
	)
	return r.runGenerate(cmd, rawURL)
}

func (r *ExecRunner) runGenerate(cmd *exec.Cmd, rawURL string) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.log.Debug("ffmpeg finished",
		logger.String("url", rawURL),
		logger.Duration("took", time.Since(start)),
		logger.Bool("ok", err == nil),
	)
	if err != nil {
		return toolError("ffmpeg", err, stderr.String())
	}
	return nil
}

func scaleFilter(width, height int) string {
	return fmt.Sprintf("scale=%d:%d", width, height)
}

// toolError wraps a tool failure with the last line of its stderr output as
// the diagnostic message.
func toolError(tool string, err error, stderr string) error {
	diag := lastLine(stderr)
	if diag == "" {
		return fmt.Errorf("%w: %s: %v", models.ErrToolFailure, tool, err)
	}
	return fmt.Errorf("%w: %s: %v: %s", models.ErrToolFailure, tool, err, diag)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// ffprobe reports numbers as JSON strings; parse them leniently.
type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if out.Format.FormatName == "" {
		return nil, fmt.Errorf("ffprobe output has no format section")
	}

	result := &ProbeResult{Format: out.Format.FormatName}
	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			result.Duration = d
		}
	}
	if out.Format.BitRate != "" {
		if b, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
			result.BitRate = b
		}
	}
	return result, nil
}
