// Package nfe holds the reconstructed fiscal document model and the extractor
// that populates it from the decoded NFe XML.
//
// Monetary and quantity fields are kept as decimal strings exactly as they
// appear in the source document; parsing them to floating point would
// introduce rounding drift the document itself does not have.
package nfe

import "fmt"

// Document is the reconstructed fiscal document (NF-e).
type Document struct {

	// AccessKey is the 44-digit document key the query was issued for
	AccessKey string

	// Number is the document number (nNF)
	Number string

	// Series is the document series (serie)
	Series string

	// IssueDate is the issue timestamp as found in the document (dhEmi)
	IssueDate string

	// OperationNature describes the fiscal operation (natOp)
	OperationNature string

	// DocumentType is the document-type flag (tpNF): 0 = inbound, 1 = outbound
	DocumentType string

	// Issuer is the issuing party (emit)
	Issuer Party

	// Recipient is the receiving party (dest)
	Recipient Party

	// Items is the ordered list of line items (det), preserving document order
	Items []Item

	// Totals is the aggregate totals block (ICMSTot)
	Totals Totals

	// Transport is the transport block (transp)
	Transport Transport

	// Installments is the billing schedule (cobr/dup), possibly empty
	Installments []Installment

	// AdditionalInfo carries the free-text addenda (infAdic)
	AdditionalInfo AdditionalInfo

	// Protocol is the authorization protocol stamp (infProt)
	Protocol Protocol
}

// Party is a legal entity referenced by the document.
type Party struct {

	// Name is the registered name (xNome)
	Name string

	// TaxID is the CNPJ (14 digits) or CPF (11 digits)
	TaxID string

	// StateRegistration is the state tax registration (IE)
	StateRegistration string

	// Address is the structured address block
	Address Address
}

// Address is a structured party address.
type Address struct {
	Street     string // xLgr
	Number     string // nro
	District   string // xBairro
	City       string // xMun
	State      string // UF
	PostalCode string // CEP
	Phone      string // fone
}

// String renders the address in the single-line display form used on the DANFE.
func (a Address) String() string {
	if a == (Address{}) {
		return ""
	}
	return fmt.Sprintf("%s, %s - %s - %s/%s - CEP: %s",
		a.Street, a.Number, a.District, a.City, a.State, a.PostalCode)
}

// Item is one line item of the document.
type Item struct {

	// Number is the 1-based item sequence (nItem attribute)
	Number int

	// Code is the issuer's product code (cProd)
	Code string

	// Description is the product description (xProd)
	Description string

	// NCM is the tariff classification code
	NCM string

	// CST is the tax-situation code (CST or CSOSN)
	CST string

	// CFOP is the operation-nature code
	CFOP string

	// Unit is the commercial unit (uCom)
	Unit string

	// Quantity is the commercial quantity (qCom)
	Quantity string

	// UnitPrice is the commercial unit price (vUnCom)
	UnitPrice string

	// Total is the line total (vProd)
	Total string

	// TaxBase, TaxAmount and TaxRate are the per-line ICMS figures
	TaxBase   string // vBC
	TaxAmount string // vICMS
	TaxRate   string // pICMS
}

// Totals is the aggregate totals block.
type Totals struct {
	ICMSBase      string // vBC
	ICMS          string // vICMS
	ICMSSTBase    string // vBCST
	ICMSST        string // vST
	Freight       string // vFrete
	Insurance     string // vSeg
	Discount      string // vDesc
	Other         string // vOutro
	IPI           string // vIPI
	ProductsTotal string // vProd
	GrandTotal    string // vNF
}

// Transport is the transport block.
type Transport struct {

	// Mode is the freight responsibility flag (modFrete)
	Mode string

	// Carrier is the carrier party (transporta); carriers have a flat
	// single-line address in the source schema
	Carrier Party

	// Volumes lists the transported volumes (vol)
	Volumes []Volume
}

// Volume is one transported volume entry.
type Volume struct {
	Quantity    string // qVol
	Kind        string // esp
	Brand       string // marca
	NetWeight   string // pesoL
	GrossWeight string // pesoB
}

// Installment is one entry of the billing schedule.
type Installment struct {
	Number  string // nDup
	DueDate string // dVenc
	Amount  string // vDup
}

// AdditionalInfo carries the free-text addenda.
type AdditionalInfo struct {

	// TaxpayerNotes is the taxpayer complement (infCpl)
	TaxpayerNotes string

	// FiscalNotes is the fiscal-interest complement (infAdFisco)
	FiscalNotes string
}

// Protocol is the authorization protocol stamp.
type Protocol struct {

	// Number is the protocol number (nProt)
	Number string

	// Timestamp is the receipt timestamp (dhRecbto)
	Timestamp string
}

// String renders the stamp in the "number - timestamp" display form.
func (p Protocol) String() string {
	if p.Number == "" && p.Timestamp == "" {
		return ""
	}
	return fmt.Sprintf("%s - %s", p.Number, p.Timestamp)
}
