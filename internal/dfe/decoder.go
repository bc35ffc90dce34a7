package dfe

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// statusDocumentLocated is the authority status meaning the queried document
// was found and a payload block is attached.
const statusDocumentLocated = "138"

// DecodeResponse unwraps the SOAP response down to the document XML: it reads
// the authority status, gates on the document-located status, picks the
// payload block, and reverses the base64 and compression encodings.
//
// Elements are located by local name so the surrounding namespace prefixes,
// which vary between authority deployments, never matter.
func DecodeResponse(body []byte) (string, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(body); err != nil {
		return "", WrapDecodeError(err, "failed to parse distribution response")
	}

	status := elementText(tree, "//cStat")
	if status == "" {
		return "", NewDecodeError("distribution response carries no status code")
	}
	if status != statusDocumentLocated {
		return "", NewProtocolError(status, elementText(tree, "//xMotivo"))
	}

	block := selectPayloadBlock(tree)
	if block == nil {
		return "", NewDecodeError("document-located response carries no payload block")
	}

	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(block.Text()))
	if err != nil {
		return "", WrapDecodeError(err, "failed to decode payload block")
	}

	xmlText, err := decompress(compressed)
	if err != nil {
		return "", WrapDecodeError(err, "failed to decompress payload block")
	}

	return string(xmlText), nil
}

// selectPayloadBlock picks the payload block to decode. Responses may attach
// several blocks (events, summaries, the authorization result); the
// authorization result, identified by its schema attribute, is preferred and
// the first block is the fallback.
func selectPayloadBlock(tree *etree.Document) *etree.Element {
	blocks := tree.FindElements("//docZip")
	if len(blocks) == 0 {
		return nil
	}
	for _, b := range blocks {
		if strings.Contains(b.SelectAttrValue("schema", ""), "procNFe") {
			return b
		}
	}
	return blocks[0]
}

// decompress reverses whichever compression the payload uses. The documented
// encoding is gzip, but deployments have been observed emitting raw deflate
// and zlib streams, so all three are attempted in that order.
func decompress(data []byte) ([]byte, error) {
	if gz, err := gzip.NewReader(bytes.NewReader(data)); err == nil {
		out, err := io.ReadAll(gz)
		gz.Close()
		if err == nil && len(out) > 0 {
			return out, nil
		}
	}

	fr := flate.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(fr)
	fr.Close()
	if err == nil && len(out) > 0 {
		return out, nil
	}

	if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		out, err := io.ReadAll(zr)
		zr.Close()
		if err == nil && len(out) > 0 {
			return out, nil
		}
	}

	return nil, fmt.Errorf("payload is not a gzip, deflate or zlib stream")
}

// elementText returns the trimmed text of the first element matching the
// path, or "".
func elementText(tree *etree.Document, path string) string {
	el := tree.FindElement(path)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
