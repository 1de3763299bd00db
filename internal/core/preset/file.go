// Package preset persists the preset-enabled attributes of a controllable to
// named files and applies them back, immediately or through tweens.
package preset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// Extension marks preset files; anything else in a preset directory is ignored.
	Extension = ".pst"
	// MarkerName is the file recording the last loaded preset of a directory.
	MarkerName = "_temp" + Extension
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrMalformed      = errors.New("malformed preset file")
	ErrInvalidName    = errors.New("invalid preset name")
)

// File is the on-disk preset. NameList and ValueList are parallel: ValueList[i]
// is the canonical string of the attribute named NameList[i].
type File struct {
	DataID    string   `json:"dataID"`
	NameList  []string `json:"nameList"`
	ValueList []string `json:"valueList"`
}

// Add appends one attribute.
func (f *File) Add(name, encoded string) {
	f.NameList = append(f.NameList, name)
	f.ValueList = append(f.ValueList, encoded)
}

// Encode renders the file as a single JSON line without a trailing newline.
func Encode(f File) ([]byte, error) {
	if f.NameList == nil {
		f.NameList = []string{}
	}
	if f.ValueList == nil {
		f.ValueList = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode reads the first line of data as a preset.
func Decode(data []byte) (File, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return File{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return File{}, fmt.Errorf("%w: empty file", ErrMalformed)
	}

	var f File
	if err := json.Unmarshal(bytes.TrimSpace(sc.Bytes()), &f); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return f, nil
}
