package dfe

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

const payloadXML = `<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe><infNFe versao="4.00"><ide><nNF>1234</nNF></ide></infNFe></NFe></nfeProc>`

func gzipBase64(t *testing.T, text string) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(text)); err != nil {
		t.Fatalf("failed to compress fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close compressor: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func deflateBase64(t *testing.T, text string) string {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("failed to create compressor: %v", err)
	}
	if _, err := fw.Write([]byte(text)); err != nil {
		t.Fatalf("failed to compress fixture: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("failed to close compressor: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func zlibBase64(t *testing.T, text string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		t.Fatalf("failed to compress fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close compressor: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// soapResponse wraps the distribution result in the SOAP body the endpoint
// actually answers with.
func soapResponse(inner string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <nfeDistDFeInteresseResponse xmlns="http://www.portalfiscal.inf.br/nfe/wsdl/NFeDistribuicaoDFe">
      <nfeDistDFeInteresseResult>%s</nfeDistDFeInteresseResult>
    </nfeDistDFeInteresseResponse>
  </soap:Body>
</soap:Envelope>`, inner))
}

func documentLocated(docZips string) []byte {
	return soapResponse(fmt.Sprintf(
		`<retDistDFeInt xmlns="http://www.portalfiscal.inf.br/nfe" versao="1.01"><tpAmb>1</tpAmb><cStat>138</cStat><xMotivo>Documento localizado</xMotivo><loteDistDFeInt>%s</loteDistDFeInt></retDistDFeInt>`,
		docZips))
}

func TestDecodeResponse_Gzip(t *testing.T) {
	body := documentLocated(fmt.Sprintf(
		`<docZip NSU="1" schema="procNFe_v4.00.xsd">%s</docZip>`, gzipBase64(t, payloadXML)))

	got, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if got != payloadXML {
		t.Errorf("DecodeResponse() = %q, want the payload document", got)
	}
}

func TestDecodeResponse_DeflateAndZlibFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"raw deflate", deflateBase64(t, payloadXML)},
		{"zlib", zlibBase64(t, payloadXML)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := documentLocated(fmt.Sprintf(`<docZip NSU="1" schema="procNFe_v4.00.xsd">%s</docZip>`, tt.encoded))

			got, err := DecodeResponse(body)
			if err != nil {
				t.Fatalf("DecodeResponse() error = %v", err)
			}
			if got != payloadXML {
				t.Errorf("DecodeResponse() = %q, want the payload document", got)
			}
		})
	}
}

func TestDecodeResponse_PrefersAuthorizationBlock(t *testing.T) {
	event := gzipBase64(t, `<procEventoNFe/>`)
	authorization := gzipBase64(t, payloadXML)
	body := documentLocated(
		fmt.Sprintf(`<docZip NSU="1" schema="procEventoNFe_v1.00.xsd">%s</docZip><docZip NSU="2" schema="procNFe_v4.00.xsd">%s</docZip>`,
			event, authorization))

	got, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if got != payloadXML {
		t.Errorf("DecodeResponse() picked the wrong block: %q", got)
	}
}

func TestDecodeResponse_FirstBlockFallback(t *testing.T) {
	body := documentLocated(fmt.Sprintf(
		`<docZip NSU="1" schema="resNFe_v1.01.xsd">%s</docZip><docZip NSU="2" schema="resEvento_v1.01.xsd">%s</docZip>`,
		gzipBase64(t, payloadXML), gzipBase64(t, `<resEvento/>`)))

	got, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if got != payloadXML {
		t.Errorf("DecodeResponse() = %q, want the first block", got)
	}
}

func TestDecodeResponse_ProtocolStatus(t *testing.T) {
	body := soapResponse(`<retDistDFeInt><cStat>137</cStat><xMotivo>Nenhum documento localizado</xMotivo></retDistDFeInt>`)

	_, err := DecodeResponse(body)
	if err == nil {
		t.Fatal("expected protocol error, got nil")
	}
	var distErr *DistError
	if !errors.As(err, &distErr) || distErr.Code() != ErrCodeProtocol {
		t.Fatalf("error = %v, want code %s", err, ErrCodeProtocol)
	}
	if distErr.StatusCode() != "137" || distErr.StatusMessage() != "Nenhum documento localizado" {
		t.Errorf("upstream status = %s/%s, want carried verbatim", distErr.StatusCode(), distErr.StatusMessage())
	}
}

func TestDecodeResponse_DecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"no status code", soapResponse(`<retDistDFeInt><xMotivo>whatever</xMotivo></retDistDFeInt>`)},
		{"located without payload", documentLocated("")},
		{"payload is not base64", documentLocated(`<docZip NSU="1" schema="procNFe_v4.00.xsd">!!!not-base64!!!</docZip>`)},
		{
			"payload is not compressed",
			documentLocated(fmt.Sprintf(`<docZip NSU="1" schema="procNFe_v4.00.xsd">%s</docZip>`,
				base64.StdEncoding.EncodeToString([]byte("plain text, no compression header")))),
		},
		{"malformed envelope", []byte("<soap:Envelope unclosed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(tt.body)
			if err == nil {
				t.Fatal("expected decode error, got nil")
			}
			var distErr *DistError
			if !errors.As(err, &distErr) || distErr.Code() != ErrCodeDecode {
				t.Errorf("error = %v, want code %s", err, ErrCodeDecode)
			}
		})
	}
}

func TestDecodeResponse_Idempotent(t *testing.T) {
	body := documentLocated(fmt.Sprintf(
		`<docZip NSU="1" schema="procNFe_v4.00.xsd">%s</docZip>`, gzipBase64(t, payloadXML)))

	first, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	second, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if first != second {
		t.Error("decoding the same response twice produced different output")
	}
}

func TestDecodeResponse_GzipMagicOnZlibStream(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x1f, 0x8b})
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(payloadXML)); err != nil {
		t.Fatalf("failed to compress fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close compressor: %v", err)
	}

	body := documentLocated(fmt.Sprintf(`<docZip NSU="1" schema="procNFe_v4.00.xsd">%s</docZip>`,
		base64.StdEncoding.EncodeToString(buf.Bytes())))

	_, err := DecodeResponse(body)
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
	var distErr *DistError
	if !errors.As(err, &distErr) || distErr.Code() != ErrCodeDecode {
		t.Errorf("error = %v, want code %s", err, ErrCodeDecode)
	}
}

func TestDecodeResponse_TruncatedGzipPayload(t *testing.T) {
	full := gzipBase64(t, payloadXML)
	raw, err := base64.StdEncoding.DecodeString(full)
	if err != nil {
		t.Fatalf("failed to rebuild fixture: %v", err)
	}
	truncated := base64.StdEncoding.EncodeToString(raw[:len(raw)/2])

	body := documentLocated(fmt.Sprintf(`<docZip NSU="1" schema="procNFe_v4.00.xsd">%s</docZip>`, truncated))

	_, err = DecodeResponse(body)
	if err == nil {
		t.Fatal("expected decode error for a truncated stream, got nil")
	}
	if !strings.Contains(err.Error(), "decompress") {
		t.Errorf("error = %v, want a decompression failure", err)
	}
}
