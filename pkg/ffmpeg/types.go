package ffmpeg

// MediaMetadata represents metadata extracted from a media file
type MediaMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Audio sample rate in Hz
	Channels   int     `json:"channels"`    // Number of audio channels
	Bitrate    int     `json:"bitrate"`     // Bitrate in bits per second
	Format     string  `json:"format"`      // Container format (mp4, mkv, mp3, ...)
	AudioCodec string  `json:"audio_codec"` // Audio codec
	HasVideo   bool    `json:"has_video"`   // Whether the container carries a video stream
	Size       int64   `json:"size"`        // File size in bytes
}
