package ports

import "time"

const (
	UploadAll    = "all"
	UploadUnsafe = "unsafe"
)

type Policy struct {
	SampleInterval time.Duration `yaml:"sample_interval"`
	Upload         string        `yaml:"upload"`      // "all", "unsafe"
	MaxSamples     int           `yaml:"max_samples"` // 0 runs until cancelled
}
