package module

import "darkroom/internal/platform/config"

// Options controls the projects service
type Options struct {
	BlobDir        string
	WorkTopic      string
	ResultsTopic   string
	Group          string
	MaxUploadBytes int64
}

// FromConfig reads with PROJECTS_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("PROJECTS_")
	return Options{
		BlobDir:        c.MayString("BLOB_DIR", "./data/blobs"),
		WorkTopic:      c.MayString("TOPIC_WORK", "darkroom.work"),
		ResultsTopic:   c.MayString("TOPIC_RESULTS", "darkroom.results"),
		Group:          c.MayString("GROUP", "darkroom-api"),
		MaxUploadBytes: int64(c.MayInt("MAX_UPLOAD_BYTES", 32<<20)),
	}
}
