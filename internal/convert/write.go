package convert

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/charmap"

	"github.com/Faultbox/dtsconv/pkg/dts"
)

// WriteOptions controls how a shape is written.
type WriteOptions struct {
	// Charset for names. Nil means Windows-1252.
	Charset *charmap.Charmap
	// Compress wraps the output in a zstd stream.
	Compress bool
}

// Write encodes s to w.
func Write(w io.Writer, s *dts.Shape, opts WriteOptions) error {
	var encOpts []dts.EncoderOption
	if opts.Charset != nil {
		encOpts = append(encOpts, dts.WithCharset(opts.Charset))
	}
	if !opts.Compress {
		return dts.NewEncoder(w, encOpts...).Encode(s)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := dts.NewEncoder(zw, encOpts...).Encode(s); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
