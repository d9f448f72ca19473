// Package importer reads trade files for bulk recording.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vinaysengar-17/stock-trading/internal/application/service/trades"

	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("trade file is empty")

// Batch is the content of a trade file. Method is empty when the file does not name one.
type Batch struct {
	Method string
	Items  []json.RawMessage
}

type document struct {
	Method string `yaml:"method"`
	Trades []any  `yaml:"trades"`
}

// Parse accepts JSON or YAML, either a bare list of trades or a mapping with
// "trades" and an optional "method". Each trade is re-encoded as JSON so it goes
// through the same decoding as an HTTP request.
func Parse(data []byte) (*Batch, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse trade file: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	var doc document
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&doc.Trades); err != nil {
			return nil, fmt.Errorf("decode trades: %w", err)
		}
	case yaml.MappingNode:
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode trade file: %w", err)
		}
		if doc.Trades == nil {
			return nil, errors.New("trade file has no trades list")
		}
	default:
		return nil, errors.New("trade file must hold a list of trades")
	}

	batch := &Batch{Method: doc.Method, Items: make([]json.RawMessage, 0, len(doc.Trades))}
	for i, item := range doc.Trades {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode trade %d: %w", i, err)
		}
		batch.Items = append(batch.Items, raw)
	}
	return batch, nil
}

// Failures counts unsuccessful results.
func Failures(results []trades.BulkResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
