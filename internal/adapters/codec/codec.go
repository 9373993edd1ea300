// Package codec serializes tier payloads: JSON documents for the
// bronze tier and Snappy-compressed Parquet for silver and gold.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/ironforge/raidlake/internal/domain/batch"
)

// ErrDecode marks any payload this package could not parse.
var ErrDecode = errors.New("decode failed")

// bronzeEnvelope mirrors the envelope document written at ingest time.
type bronzeEnvelope struct {
	BatchID         string           `json:"batch_id"`
	IngestTimestamp string           `json:"ingest_timestamp"`
	EventCount      int              `json:"event_count"`
	Events          []map[string]any `json:"events"`
}

// EncodeBronze serializes one accepted batch envelope.
func EncodeBronze(env *batch.Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode bronze envelope %s: %w", env.BatchID, err)
	}
	return data, nil
}

// DecodeBronze parses a bronze object into loose records. Both layouts
// are accepted: the envelope document and a bare array of events.
func DecodeBronze(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty bronze object", ErrDecode)
	}

	if trimmed[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: bare event array: %v", ErrDecode, err)
		}
		return records, nil
	}

	var env bronzeEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: bronze envelope: %v", ErrDecode, err)
	}
	if env.Events == nil {
		return nil, fmt.Errorf("%w: bronze envelope has no events field", ErrDecode)
	}
	return env.Events, nil
}

// EncodeParquet writes rows as a Snappy-compressed Parquet file.
func EncodeParquet[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return nil, fmt.Errorf("encode parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeParquet reads every row of a Parquet file.
func DecodeParquet[T any](data []byte) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: parquet: %v", ErrDecode, err)
	}
	return rows, nil
}
