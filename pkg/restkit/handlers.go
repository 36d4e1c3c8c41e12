package restkit

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// Errors for bodies that are not one well-formed XML document.
var (
	ErrNoXMLRoot             = errors.New("no root element")
	ErrXMLContentOutsideRoot = errors.New("content after document element")
)

// ResponseHandler turns a successful raw response into a payload.
type ResponseHandler interface {
	Parse(resp *Response) (any, error)
}

// RawResponseHandler returns the *Response unchanged.
type RawResponseHandler struct{}

// Parse implements ResponseHandler.
func (RawResponseHandler) Parse(resp *Response) (any, error) {
	return resp, nil
}

// JSONResponseHandler decodes the body as JSON. An empty body yields nil.
type JSONResponseHandler struct{}

// Parse implements ResponseHandler.
func (JSONResponseHandler) Parse(resp *Response) (any, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}

	var data any

	err := json.Unmarshal(resp.Body, &data)
	if err != nil {
		return nil, newParseError("decode response data to json", resp.RawData(), err)
	}

	return data, nil
}

// XMLResponseHandler parses the body into an element tree and returns its
// root *etree.Element. An empty body yields nil.
type XMLResponseHandler struct{}

// Parse implements ResponseHandler.
func (XMLResponseHandler) Parse(resp *Response) (any, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}

	doc := etree.NewDocument()

	err := doc.ReadFromBytes(resp.Body)
	if err != nil {
		return nil, newParseError("parse response data to xml", resp.RawData(), err)
	}

	root := doc.Root()
	if root == nil {
		return nil, newParseError("parse response data to xml", resp.RawData(), ErrNoXMLRoot)
	}

	// Only whitespace, comments, directives and processing instructions may
	// sit beside the root element.
	for _, token := range doc.Child {
		switch value := token.(type) {
		case *etree.Element:
			if value != root {
				return nil, newParseError("parse response data to xml", resp.RawData(), ErrXMLContentOutsideRoot)
			}
		case *etree.CharData:
			if strings.TrimSpace(value.Data) != "" {
				return nil, newParseError("parse response data to xml", resp.RawData(), ErrXMLContentOutsideRoot)
			}
		}
	}

	return root, nil
}
