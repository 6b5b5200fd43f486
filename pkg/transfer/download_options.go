package transfer

// DownloadOptions control a single ranged download.
type DownloadOptions struct {
	// PartSize in bytes; zero falls back to the engine's configured default.
	PartSize int64

	// Workers bounds the download worker pool; zero falls back to the
	// engine's configured default.
	Workers int

	// Progress, if set, is invoked after every completed part with the
	// completed count and the total part count.
	Progress func(completed, total int)
}

// DownloadOption mutates DownloadOptions.
type DownloadOption func(*DownloadOptions)

// WithPartSize sets the part size in bytes.
func WithPartSize(bytes int64) DownloadOption {
	return func(o *DownloadOptions) {
		o.PartSize = bytes
	}
}

// WithWorkers sets the worker pool size.
func WithWorkers(workers int) DownloadOption {
	return func(o *DownloadOptions) {
		o.Workers = workers
	}
}

// WithProgress sets a completed-parts observer.
func WithProgress(fn func(completed, total int)) DownloadOption {
	return func(o *DownloadOptions) {
		o.Progress = fn
	}
}

func buildDownloadOptions(opts ...DownloadOption) DownloadOptions {
	var options DownloadOptions
	for _, o := range opts {
		if o != nil {
			o(&options)
		}
	}
	return options
}
