package nfe

import (
	"strings"
	"testing"
)

const testAccessKey = "35240112345678000190550010000012341000012349"

// procNFeFixture is a trimmed but structurally faithful authorization result.
const procNFeFixture = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240112345678000190550010000012341000012349" versao="4.00">
      <ide>
        <cUF>35</cUF>
        <natOp>VENDA DE MERCADORIA</natOp>
        <serie>1</serie>
        <nNF>1234</nNF>
        <dhEmi>2024-01-15T10:30:00-03:00</dhEmi>
        <tpNF>1</tpNF>
      </ide>
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>ACME LTDA</xNome>
        <IE>123456789012</IE>
        <enderEmit>
          <xLgr>RUA DAS FLORES</xLgr>
          <nro>100</nro>
          <xBairro>CENTRO</xBairro>
          <xMun>SAO PAULO</xMun>
          <UF>SP</UF>
          <CEP>01001000</CEP>
          <fone>1133334444</fone>
        </enderEmit>
      </emit>
      <dest>
        <CPF>12345678901</CPF>
        <xNome>JOAO DA SILVA</xNome>
        <enderDest>
          <xLgr>AV BRASIL</xLgr>
          <nro>200</nro>
          <xBairro>JARDIM</xBairro>
          <xMun>CAMPINAS</xMun>
          <UF>SP</UF>
          <CEP>13010000</CEP>
        </enderDest>
      </dest>
      <det nItem="1">
        <prod>
          <cProd>SKU-001</cProd>
          <xProd>WIDGET</xProd>
          <NCM>84439933</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>2.0000</qCom>
          <vUnCom>30.00</vUnCom>
          <vProd>60.00</vProd>
        </prod>
        <imposto>
          <ICMS>
            <ICMS00>
              <CST>00</CST>
              <vBC>60.00</vBC>
              <pICMS>18.00</pICMS>
              <vICMS>10.80</vICMS>
            </ICMS00>
          </ICMS>
        </imposto>
      </det>
      <det nItem="2">
        <prod>
          <cProd>SKU-002</cProd>
          <xProd>GADGET</xProd>
          <NCM>85171231</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>1.0000</qCom>
          <vUnCom>40.00</vUnCom>
          <vProd>40.00</vProd>
        </prod>
        <imposto>
          <ICMS>
            <ICMSSN102>
              <CSOSN>102</CSOSN>
            </ICMSSN102>
          </ICMS>
        </imposto>
      </det>
      <total>
        <ICMSTot>
          <vBC>60.00</vBC>
          <vICMS>10.80</vICMS>
          <vBCST>0.00</vBCST>
          <vST>0.00</vST>
          <vProd>100.00</vProd>
          <vFrete>5.00</vFrete>
          <vSeg>0.00</vSeg>
          <vDesc>5.00</vDesc>
          <vIPI>0.00</vIPI>
          <vOutro>0.00</vOutro>
          <vNF>100.00</vNF>
        </ICMSTot>
      </total>
      <transp>
        <modFrete>0</modFrete>
        <transporta>
          <CNPJ>99999999000199</CNPJ>
          <xNome>TRANSPORTES RAPIDOS SA</xNome>
          <IE>987654321098</IE>
          <xEnder>ROD ANHANGUERA KM 10</xEnder>
          <xMun>JUNDIAI</xMun>
          <UF>SP</UF>
        </transporta>
        <vol>
          <qVol>2</qVol>
          <esp>CAIXA</esp>
          <marca>ACME</marca>
          <pesoL>1.500</pesoL>
          <pesoB>2.000</pesoB>
        </vol>
      </transp>
      <cobr>
        <dup>
          <nDup>001</nDup>
          <dVenc>2024-02-15</dVenc>
          <vDup>50.00</vDup>
        </dup>
        <dup>
          <nDup>002</nDup>
          <dVenc>2024-03-15</dVenc>
          <vDup>50.00</vDup>
        </dup>
      </cobr>
      <infAdic>
        <infAdFisco>ISENTO CONFORME ART 1</infAdFisco>
        <infCpl>PEDIDO 42</infCpl>
      </infAdic>
    </infNFe>
  </NFe>
  <protNFe versao="4.00">
    <infProt>
      <chNFe>35240112345678000190550010000012341000012349</chNFe>
      <dhRecbto>2024-01-15T10:31:02-03:00</dhRecbto>
      <nProt>135240000012345</nProt>
      <cStat>100</cStat>
      <xMotivo>Autorizado o uso da NF-e</xMotivo>
    </infProt>
  </protNFe>
</nfeProc>`

func TestExtract(t *testing.T) {
	doc, err := Extract(procNFeFixture, testAccessKey)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if doc.AccessKey != testAccessKey {
		t.Errorf("AccessKey = %q, want %q", doc.AccessKey, testAccessKey)
	}
	if doc.Number != "1234" || doc.Series != "1" {
		t.Errorf("Number/Series = %q/%q, want 1234/1", doc.Number, doc.Series)
	}
	if doc.IssueDate != "2024-01-15T10:30:00-03:00" {
		t.Errorf("IssueDate = %q", doc.IssueDate)
	}
	if doc.OperationNature != "VENDA DE MERCADORIA" {
		t.Errorf("OperationNature = %q", doc.OperationNature)
	}

	if doc.Issuer.Name != "ACME LTDA" || doc.Issuer.TaxID != "12345678000190" {
		t.Errorf("Issuer = %+v", doc.Issuer)
	}
	if doc.Issuer.Address.Street != "RUA DAS FLORES" || doc.Issuer.Address.Phone != "1133334444" {
		t.Errorf("Issuer.Address = %+v", doc.Issuer.Address)
	}
	if doc.Recipient.Name != "JOAO DA SILVA" || doc.Recipient.TaxID != "12345678901" {
		t.Errorf("Recipient = %+v", doc.Recipient)
	}

	if len(doc.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(doc.Items))
	}
	first := doc.Items[0]
	if first.Number != 1 || first.Description != "WIDGET" || first.Total != "60.00" {
		t.Errorf("Items[0] = %+v", first)
	}
	if first.CST != "00" || first.TaxBase != "60.00" || first.TaxRate != "18.00" || first.TaxAmount != "10.80" {
		t.Errorf("Items[0] tax figures = %+v", first)
	}
	second := doc.Items[1]
	if second.Number != 2 || second.Description != "GADGET" {
		t.Errorf("Items[1] = %+v", second)
	}
	if second.CST != "102" {
		t.Errorf("Items[1].CST = %q, want the CSOSN fallback 102", second.CST)
	}

	if doc.Totals.GrandTotal != "100.00" || doc.Totals.ProductsTotal != "100.00" {
		t.Errorf("Totals = %+v", doc.Totals)
	}
	if doc.Totals.Freight != "5.00" || doc.Totals.Discount != "5.00" {
		t.Errorf("Totals freight/discount = %+v", doc.Totals)
	}

	if doc.Transport.Mode != "0" {
		t.Errorf("Transport.Mode = %q", doc.Transport.Mode)
	}
	if doc.Transport.Carrier.Name != "TRANSPORTES RAPIDOS SA" ||
		doc.Transport.Carrier.Address.Street != "ROD ANHANGUERA KM 10" {
		t.Errorf("Transport.Carrier = %+v", doc.Transport.Carrier)
	}
	if len(doc.Transport.Volumes) != 1 || doc.Transport.Volumes[0].Kind != "CAIXA" {
		t.Errorf("Transport.Volumes = %+v", doc.Transport.Volumes)
	}

	if len(doc.Installments) != 2 || doc.Installments[1].DueDate != "2024-03-15" {
		t.Errorf("Installments = %+v", doc.Installments)
	}

	if doc.AdditionalInfo.TaxpayerNotes != "PEDIDO 42" || doc.AdditionalInfo.FiscalNotes != "ISENTO CONFORME ART 1" {
		t.Errorf("AdditionalInfo = %+v", doc.AdditionalInfo)
	}

	if doc.Protocol.Number != "135240000012345" || doc.Protocol.Timestamp != "2024-01-15T10:31:02-03:00" {
		t.Errorf("Protocol = %+v", doc.Protocol)
	}
}

func TestExtract_ItemOrderAndTotalsReconcile(t *testing.T) {
	doc, err := Extract(procNFeFixture, testAccessKey)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for i, item := range doc.Items {
		if item.Number != i+1 {
			t.Errorf("Items[%d].Number = %d, want document order preserved", i, item.Number)
		}
	}

	// 60.00 + 40.00 lines against a 100.00 products total
	if doc.Items[0].Total != "60.00" || doc.Items[1].Total != "40.00" || doc.Totals.ProductsTotal != "100.00" {
		t.Errorf("line totals %q + %q do not reconcile with %q",
			doc.Items[0].Total, doc.Items[1].Total, doc.Totals.ProductsTotal)
	}
}

func TestExtract_MinimalDocument(t *testing.T) {
	minimal := `<NFe><infNFe Id="NFe123" versao="4.00"><ide><nNF>9</nNF></ide></infNFe></NFe>`

	doc, err := Extract(minimal, testAccessKey)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if doc.Number != "9" {
		t.Errorf("Number = %q, want 9", doc.Number)
	}
	if len(doc.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0 for a document without line items", len(doc.Items))
	}
	if doc.Issuer != (Party{}) || doc.Recipient != (Party{}) {
		t.Errorf("missing parties should stay empty, got issuer %+v recipient %+v", doc.Issuer, doc.Recipient)
	}
	if doc.Totals != (Totals{}) {
		t.Errorf("missing totals block should stay empty, got %+v", doc.Totals)
	}
	if doc.Protocol.String() != "" {
		t.Errorf("Protocol.String() = %q, want empty", doc.Protocol.String())
	}
}

func TestExtract_DateOnlyFallback(t *testing.T) {
	old := `<NFe><infNFe versao="2.00"><ide><dEmi>2012-05-01</dEmi></ide></infNFe></NFe>`

	doc, err := Extract(old, testAccessKey)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.IssueDate != "2012-05-01" {
		t.Errorf("IssueDate = %q, want the date-only fallback", doc.IssueDate)
	}
}

func TestExtract_NoDocumentContent(t *testing.T) {
	_, err := Extract(`<retDistDFeInt><cStat>138</cStat></retDistDFeInt>`, testAccessKey)
	if err != ErrNoDocument {
		t.Errorf("Extract() error = %v, want ErrNoDocument", err)
	}
}

func TestExtract_MalformedXML(t *testing.T) {
	_, err := Extract("this is not xml <unclosed", testAccessKey)
	if err == nil {
		t.Fatal("expected error for malformed input, got nil")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error = %v, want a parse error", err)
	}
}
