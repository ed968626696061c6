package worklist

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Start conditions for a batch.
const (
	ConstraintASAP        = "ASAP"
	ConstraintStartFinish = "SF"
	ReferenceNone         = "None"
)

// VariableTypeString is the only variable type the scheduler processes use.
const VariableTypeString = "String"

const renderIndent = " "

// Document is the root <worklist> element.
type Document struct {
	XMLName  xml.Name `xml:"worklist"`
	Workunit Workunit `xml:"workunit"`
}

// Workunit is a named group of chained batches.
type Workunit struct {
	Name             string  `xml:"name,attr"`
	Append           bool    `xml:"append,attr"`
	AutoLoad         bool    `xml:"auto_load,attr"`
	AutoVerifyLoad   bool    `xml:"auto_verify_load,attr"`
	AutoUnload       bool    `xml:"auto_unload,attr"`
	AutoVerifyUnload bool    `xml:"auto_verify_unload,attr"`
	Batches          []Batch `xml:"batch"`
}

// Batch runs one scheduler process. Batches after the first reference the
// previous batch by name and start when it finishes.
type Batch struct {
	Process      string     `xml:"process,attr"`
	Name         string     `xml:"name,attr"`
	Priority     string     `xml:"priority,attr"`
	Iterations   string     `xml:"iterations,attr"`
	MinimumDelay string     `xml:"minimumDelay,attr"`
	Reference    string     `xml:"reference,attr"`
	Constraint   string     `xml:"constraint,attr"`
	Variables    []Variable `xml:"variable"`
}

// Variable is a typed process parameter.
type Variable struct {
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// Variable returns the value of the named variable and whether it exists.
func (b Batch) Variable(name string) (string, bool) {
	for _, v := range b.Variables {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Render serializes doc with one-space indentation and a trailing newline.
// Carriage returns and newlines in variable values are escaped as character
// references so Parse returns them unchanged.
func Render(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", renderIndent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("render worklist: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render worklist: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Parse reads a rendered worklist.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse worklist: %w", err)
	}
	return &doc, nil
}
