package lumo

// LoadOption configures a Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	memoryLimit   int64
	skipIntensity bool
	strictFrames  bool
}

func defaultLoadOptions() *loadOptions {
	return &loadOptions{}
}

// WithMemoryLimit sets a hard cap in bytes on the intensity matrix size.
// Loads whose pre-flight estimate exceeds the cap fail with ErrMemoryLimit
// before any allocation. Zero (the default) disables the cap; a warning is
// still logged above the soft threshold.
func WithMemoryLimit(bytes int64) LoadOption {
	return func(o *loadOptions) {
		if bytes >= 0 {
			o.memoryLimit = bytes
		}
	}
}

// WithoutIntensity skips the intensity stream entirely; the returned
// Recording carries the enumeration, layout, and events but no data block.
func WithoutIntensity() LoadOption {
	return func(o *loadOptions) {
		o.skipIntensity = true
	}
}

// WithStrictFrames turns a trailing frame shortfall (the chunk stream
// covering fewer frames than the recording descriptor declares) into
// ErrFrameShortfall instead of a logged warning.
func WithStrictFrames() LoadOption {
	return func(o *loadOptions) {
		o.strictFrames = true
	}
}
