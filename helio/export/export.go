// Package export turns a conversation log into a portable JSON document and back.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ZanzyTHEbar/helio-assistant/helio/chatlog"
)

//go:embed schema.json
var documentSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(documentSchema)

// ErrInvalidDocument is returned when an imported document does not match the export format.
var ErrInvalidDocument = errors.New("invalid chat history document")

// Record is one exported exchange. Field order fixes the key order in the output.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Document is the exported form of a log, oldest entry first.
type Document []Record

// Export snapshots the log. Later appends do not affect the returned document.
func Export(log *chatlog.Log) Document {
	entries := log.Entries()
	doc := make(Document, len(entries))
	for i, e := range entries {
		doc[i] = Record{Question: e.Question, Answer: e.Answer}
	}
	return doc
}

// Encode writes the document as an indented JSON array.
func Encode(w io.Writer, doc Document) error {
	if doc == nil {
		doc = Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}
	return nil
}

// Marshal returns the encoded document.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the document to path, replacing any existing file.
func WriteFile(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chat history %s: %w", path, err)
	}
	return nil
}

// Decode reads and validates a document.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDocument)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat history %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Import builds a new log holding the document's records in order.
func Import(doc Document) *chatlog.Log {
	log := chatlog.New()
	ImportInto(log, doc)
	return log
}

// ImportInto appends the document's records to an existing log.
func ImportInto(log *chatlog.Log, doc Document) {
	for _, r := range doc {
		log.Append(r.Question, r.Answer)
	}
}
