// Package archive unpacks scanned envelopes.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrMetadataNotFound is returned when the envelope carries no metadata file.
var ErrMetadataNotFound = errors.New("metadata file not found in envelope")

// maxMetadataSize bounds the metadata file read from one envelope.
const maxMetadataSize = 10 << 20

// Extractor reads the metadata file out of a zipped envelope.
type Extractor struct {
	metadataFileName string
}

// NewExtractor returns an Extractor looking for metadataFileName. The match
// ignores case and any directory inside the archive.
func NewExtractor(metadataFileName string) *Extractor {
	return &Extractor{metadataFileName: metadataFileName}
}

// ExtractMetadata returns the metadata JSON held in the zip archive data.
func (e *Extractor) ExtractMetadata(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("unable to open envelope: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Base(f.Name), e.metadataFileName) {
			continue
		}
		return readFile(f)
	}
	return "", ErrMetadataNotFound
}

func readFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("unable to open %q: %w", f.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxMetadataSize+1))
	if err != nil {
		return "", fmt.Errorf("unable to read %q: %w", f.Name, err)
	}
	if len(content) > maxMetadataSize {
		return "", fmt.Errorf("%q exceeds %d bytes", f.Name, maxMetadataSize)
	}
	return string(content), nil
}
