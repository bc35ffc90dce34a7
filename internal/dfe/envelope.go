package dfe

import "fmt"

// soapEnvelope is the SOAP 1.2 request for a single-key distribution query
// (consChNFe). Placeholders, in order: authority state code, environment flag,
// authority state code again, the querying party's CNPJ, and the access key.
const soapEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Header>
    <nfeCabecMsg xmlns="http://www.portalfiscal.inf.br/nfe/wsdl/NFeDistribuicaoDFe">
      <cUF>%d</cUF>
      <versaoDados>1.01</versaoDados>
    </nfeCabecMsg>
  </soap12:Header>
  <soap12:Body>
    <nfeDistDFeInteresse xmlns="http://www.portalfiscal.inf.br/nfe/wsdl/NFeDistribuicaoDFe">
      <nfeDadosMsg>
        <distDFeInt xmlns="http://www.portalfiscal.inf.br/nfe" versao="1.01">
          <tpAmb>%s</tpAmb>
          <cUFAutor>%d</cUFAutor>
          <CNPJ>%s</CNPJ>
          <consChNFe>
            <chNFe>%s</chNFe>
          </consChNFe>
        </distDFeInt>
      </nfeDadosMsg>
    </nfeDistDFeInteresse>
  </soap12:Body>
</soap12:Envelope>`

// BuildRequest produces the SOAP request body for one access-key query.
// The inputs are assumed already validated; the builder itself never fails.
func BuildRequest(accessKey, taxID string, ufCode int, environment string) string {
	return fmt.Sprintf(soapEnvelope, ufCode, environment, ufCode, taxID, accessKey)
}
