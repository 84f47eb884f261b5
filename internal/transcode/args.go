package transcode

import "strings"

// MergeArgConfig holds the parameters for one two-input merge invocation.
type MergeArgConfig struct {
	VideoPath    string
	AudioPath    string
	OutputPath   string
	VideoCodec   string
	AudioCodec   string
	Preset       string
	AudioBitrate string
}

// buildMergeArgs maps the first input's video and the second input's audio
// into a single mp4, overwriting the output path.
func buildMergeArgs(cfg MergeArgConfig) []string {
	videoCodec := strings.TrimSpace(cfg.VideoCodec)
	if videoCodec == "" {
		videoCodec = "libx264"
	}
	audioCodec := strings.TrimSpace(cfg.AudioCodec)
	if audioCodec == "" {
		audioCodec = "aac"
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-i", cfg.VideoPath,
		"-i", cfg.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", videoCodec,
	}
	if videoCodec == "libx264" {
		preset := strings.TrimSpace(cfg.Preset)
		if preset == "" {
			preset = "veryfast"
		}
		args = append(args, "-preset", preset, "-pix_fmt", "yuv420p")
	}
	args = append(args, "-c:a", audioCodec)
	if bitrate := strings.TrimSpace(cfg.AudioBitrate); bitrate != "" && audioCodec != "copy" {
		args = append(args, "-b:a", bitrate)
	}
	args = append(args,
		"-shortest",
		"-movflags", "+faststart",
		"-f", "mp4",
		cfg.OutputPath,
	)
	return args
}
