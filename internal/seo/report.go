package seo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrInvalidReport is returned for files that are not a JSON object.
var ErrInvalidReport = errors.New("invalid report file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeReport reads a report file. Files that are not valid UTF-8 are
// decoded as Latin-1. The "conteudo" field may sit at any depth.
func DecodeReport(path string, data []byte) (Report, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
		if err != nil {
			return Report{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
		}
		data = decoded
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}

	return Report{
		Path:    path,
		Group:   firstString(doc, "grupo", "group"),
		Brand:   firstString(doc, "marca", "brand", "empresa"),
		Domain:  firstString(doc, "dominio", "domínio", "domain", "site"),
		Date:    firstString(doc, "data", "date"),
		Content: findContent(doc),
	}, nil
}

func firstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// findContent looks for "conteudo" breadth first through nested objects.
func findContent(doc map[string]any) string {
	queue := []map[string]any{doc}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, key := range []string{"conteudo", "conteúdo", "content"} {
			if s, ok := node[key].(string); ok {
				return s
			}
		}
		for _, v := range node {
			switch child := v.(type) {
			case map[string]any:
				queue = append(queue, child)
			case []any:
				for _, item := range child {
					if m, ok := item.(map[string]any); ok {
						queue = append(queue, m)
					}
				}
			}
		}
	}
	return ""
}
