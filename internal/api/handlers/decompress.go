package handlers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/h2non/filetype"
	"github.com/klauspost/compress/gzip"
)

const maxDecompressedSize = 512 << 20 // 512 MiB

// extractXML unwraps an uploaded payload into raw XML. Container
// detection goes by content sniffing, not extension, so a mislabeled
// .xml that is really gzip still opens. ZIP archives contribute their
// first .xml member.
func extractXML(name string, data []byte) ([]byte, error) {
	switch {
	case isZip(data):
		return firstZipXML(data)
	case isGzip(data):
		return gunzip(data)
	default:
		if bytes.Contains(data[:min(len(data), 256)], []byte("<")) {
			return data, nil
		}
		return nil, fmt.Errorf("unsupported file format for %q: expected .xml, .xml.gz or .zip", name)
	}
}

func isGzip(data []byte) bool {
	t, err := filetype.Match(data)
	return err == nil && t.Extension == "gz"
}

func isZip(data []byte) bool {
	t, err := filetype.Match(data)
	return err == nil && t.Extension == "zip"
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid gzip file: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip file: %w", err)
	}
	return out, nil
}

func firstZipXML(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid ZIP file: %w", err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open ZIP member %q: %w", f.Name, err)
		}
		defer rc.Close()

		out, err := io.ReadAll(io.LimitReader(rc, maxDecompressedSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read ZIP member %q: %w", f.Name, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("ZIP file does not contain any XML files")
}
