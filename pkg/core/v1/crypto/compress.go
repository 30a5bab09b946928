package crypto

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressStream copies src into dst through a zstd encoder.
// Used by store export.
func CompressStream(dst io.Writer, src io.Reader) (int64, error) {
	// default settings
	encoder, err := zstd.NewWriter(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(encoder, src)
	if err != nil {
		encoder.Close()
		return n, err
	}

	return n, encoder.Close()
}

// DecompressStream copies zstd-compressed src into dst.
func DecompressStream(dst io.Writer, src io.Reader) (int64, error) {
	decoder, err := zstd.NewReader(src)
	if err != nil {
		return 0, err
	}
	defer decoder.Close()

	return io.Copy(dst, decoder)
}
