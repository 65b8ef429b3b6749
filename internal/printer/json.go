package printer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/richardwooding/dexstr/internal/record"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Aggregate maps each processed DEX file name to its records.
type Aggregate map[string][]record.Record

// MarshalIndent encodes v compactly and re-indents it with two spaces per
// level. The json-iterator encoder mis-nests indentation inside arrays and
// maps, so indenting is left to encoding/json.
func MarshalIndent(v any) ([]byte, error) {
	data, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes the aggregate as indented JSON followed by a newline.
func WriteJSON(w io.Writer, all Aggregate) error {
	if all == nil {
		all = Aggregate{}
	}
	data, err := MarshalIndent(all)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteJSONFile creates path and writes the aggregate into it.
func WriteJSONFile(path string, all Aggregate) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create aggregate: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close aggregate: %w", closeErr)
		}
	}()

	if err := WriteJSON(f, all); err != nil {
		return fmt.Errorf("encode aggregate %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes an aggregate previously written by WriteJSON.
func ReadJSON(r io.Reader) (Aggregate, error) {
	var all Aggregate
	if err := jsonAPI.NewDecoder(r).Decode(&all); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return all, nil
}
