package handlers

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0"?><measCollecFile><fileHeader beginTime="2025-06-01T10:15:00Z"/></measCollecFile>`

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractPlainXML(t *testing.T) {
	out, err := extractXML("report.xml", []byte(sampleXML))
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleXML), out)
}

func TestExtractGzip(t *testing.T) {
	out, err := extractXML("report.xml.gz", gzipped(t, []byte(sampleXML)))
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleXML), out)
}

// Container detection goes by content, so a gzip payload with a plain
// .xml name still opens.
func TestExtractGzipWithWrongExtension(t *testing.T) {
	out, err := extractXML("report.xml", gzipped(t, []byte(sampleXML)))
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleXML), out)
}

func TestExtractZipFirstXMLMember(t *testing.T) {
	payload := zipped(t, map[string][]byte{
		"A20250601.xml": []byte(sampleXML),
	})

	out, err := extractXML("export.zip", payload)
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleXML), out)
}

func TestExtractZipSkipsNonXMLMembers(t *testing.T) {
	payload := zipped(t, map[string][]byte{
		"readme.txt":    []byte("not a measurement"),
		"A20250601.xml": []byte(sampleXML),
	})

	out, err := extractXML("export.zip", payload)
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleXML), out)
}

func TestExtractZipWithoutXML(t *testing.T) {
	payload := zipped(t, map[string][]byte{
		"readme.txt": []byte("nothing useful"),
	})

	_, err := extractXML("export.zip", payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain any XML")
}

func TestExtractUnsupportedPayload(t *testing.T) {
	_, err := extractXML("data.bin", bytes.Repeat([]byte{0x00, 0x01}, 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}
