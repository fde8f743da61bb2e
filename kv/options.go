package kv

// Options configures an Environment (spec.md §6 constants). There is no
// external config/CLI framework here: the caller constructs this struct
// directly, matching the teacher's preference for explicit construction
// over a declarative config file.
type Options struct {
	MaxKeySize     int
	DefaultValSize int
	UseReaders     int
	MaxReaders     int
	MaxDBs         int
	InitDBSizeMB   int64

	Encoder  Encoder
	Measurer Measurer
	Decoder  Decoder
}

// DefaultOptions mirrors the native LMDB defaults the lmdb package already
// assumes (511-byte max key; see Env.MaxKeySize).
func DefaultOptions() Options {
	return Options{
		MaxKeySize:     511,
		DefaultValSize: 4096,
		UseReaders:     126,
		MaxReaders:     128,
		MaxDBs:         128,
		InitDBSizeMB:   100,
		Encoder:        RawEncoder,
		Measurer:       RawMeasurer,
		Decoder:        RawDecoder,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.MaxKeySize <= 0 {
		o.MaxKeySize = d.MaxKeySize
	}
	if o.DefaultValSize <= 0 {
		o.DefaultValSize = d.DefaultValSize
	}
	if o.UseReaders <= 0 {
		o.UseReaders = d.UseReaders
	}
	if o.MaxReaders <= 0 {
		o.MaxReaders = d.MaxReaders
	}
	if o.MaxDBs <= 0 {
		o.MaxDBs = d.MaxDBs
	}
	if o.InitDBSizeMB <= 0 {
		o.InitDBSizeMB = d.InitDBSizeMB
	}
	if o.Encoder == nil {
		o.Encoder = d.Encoder
	}
	if o.Measurer == nil {
		o.Measurer = d.Measurer
	}
	if o.Decoder == nil {
		o.Decoder = d.Decoder
	}
}
