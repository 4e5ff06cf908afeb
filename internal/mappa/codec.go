package mappa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// CompressedSuffix marks data files stored as zstd-compressed YAML
const CompressedSuffix = ".zst"

// LoadData reads floor data from a YAML file, or a zstd-compressed YAML file
// if the path ends in .zst
func LoadData(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open floor data: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, CompressedSuffix) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	return DecodeData(r)
}

// DecodeData parses floor data from YAML
func DecodeData(r io.Reader) (*Data, error) {
	var data Data
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse floor data: %w", err)
	}
	for gi, group := range data.FloorLists {
		for fi, floor := range group {
			if floor == nil {
				return nil, fmt.Errorf("floor list %d: floor %d is empty", gi, fi)
			}
		}
	}
	return &data, nil
}

// SaveData writes floor data as YAML, zstd-compressed if the path ends in .zst
func SaveData(path string, data *Data) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create floor data file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if strings.HasSuffix(path, CompressedSuffix) {
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to open zstd stream: %w", err)
		}
		if err := EncodeData(enc, data); err != nil {
			_ = enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	} else if err := EncodeData(w, data); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write floor data: %w", err)
	}
	return f.Sync()
}

// EncodeData writes floor data as YAML
func EncodeData(w io.Writer, data *Data) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode floor data: %w", err)
	}
	return encoder.Close()
}
