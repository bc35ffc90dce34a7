package nfe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrNoDocument is returned when the decoded text contains no recognizable
// fiscal document content at all. Missing optional blocks are not errors;
// they yield empty substructures.
var ErrNoDocument = errors.New("no recognizable document content")

// Extract walks the decoded NFe XML and populates the document model.
//
// Elements are addressed by local name within their parent scope using a
// conformant tree parser; the upstream documents are namespace-prefix-free,
// so local names are unambiguous.
func Extract(xmlText, accessKey string) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromString(xmlText); err != nil {
		return nil, fmt.Errorf("parse document XML: %w", err)
	}

	inf := tree.FindElement("//infNFe")
	if inf == nil {
		return nil, ErrNoDocument
	}

	doc := &Document{AccessKey: accessKey}

	if ide := inf.FindElement("ide"); ide != nil {
		doc.Number = childText(ide, "nNF")
		doc.Series = childText(ide, "serie")
		doc.IssueDate = childText(ide, "dhEmi")
		if doc.IssueDate == "" {
			// layout 2.00 documents carry a date-only field
			doc.IssueDate = childText(ide, "dEmi")
		}
		doc.OperationNature = childText(ide, "natOp")
		doc.DocumentType = childText(ide, "tpNF")
	}

	doc.Issuer = extractParty(inf.FindElement("emit"), "enderEmit")
	doc.Recipient = extractParty(inf.FindElement("dest"), "enderDest")

	for i, det := range inf.FindElements("det") {
		doc.Items = append(doc.Items, extractItem(det, i+1))
	}

	if tot := inf.FindElement("total/ICMSTot"); tot != nil {
		doc.Totals = Totals{
			ICMSBase:      childText(tot, "vBC"),
			ICMS:          childText(tot, "vICMS"),
			ICMSSTBase:    childText(tot, "vBCST"),
			ICMSST:        childText(tot, "vST"),
			Freight:       childText(tot, "vFrete"),
			Insurance:     childText(tot, "vSeg"),
			Discount:      childText(tot, "vDesc"),
			Other:         childText(tot, "vOutro"),
			IPI:           childText(tot, "vIPI"),
			ProductsTotal: childText(tot, "vProd"),
			GrandTotal:    childText(tot, "vNF"),
		}
	}

	if transp := inf.FindElement("transp"); transp != nil {
		doc.Transport.Mode = childText(transp, "modFrete")
		if carrier := transp.FindElement("transporta"); carrier != nil {
			doc.Transport.Carrier = Party{
				Name:              childText(carrier, "xNome"),
				TaxID:             partyTaxID(carrier),
				StateRegistration: childText(carrier, "IE"),
				Address: Address{
					Street: childText(carrier, "xEnder"),
					City:   childText(carrier, "xMun"),
					State:  childText(carrier, "UF"),
				},
			}
		}
		for _, vol := range transp.FindElements("vol") {
			doc.Transport.Volumes = append(doc.Transport.Volumes, Volume{
				Quantity:    childText(vol, "qVol"),
				Kind:        childText(vol, "esp"),
				Brand:       childText(vol, "marca"),
				NetWeight:   childText(vol, "pesoL"),
				GrossWeight: childText(vol, "pesoB"),
			})
		}
	}

	if cobr := inf.FindElement("cobr"); cobr != nil {
		for _, dup := range cobr.FindElements("dup") {
			doc.Installments = append(doc.Installments, Installment{
				Number:  childText(dup, "nDup"),
				DueDate: childText(dup, "dVenc"),
				Amount:  childText(dup, "vDup"),
			})
		}
	}

	if ad := inf.FindElement("infAdic"); ad != nil {
		doc.AdditionalInfo = AdditionalInfo{
			TaxpayerNotes: childText(ad, "infCpl"),
			FiscalNotes:   childText(ad, "infAdFisco"),
		}
	}

	// the protocol stamp lives outside infNFe, in the procNFe wrapper
	if prot := tree.FindElement("//infProt"); prot != nil {
		doc.Protocol = Protocol{
			Number:    childText(prot, "nProt"),
			Timestamp: childText(prot, "dhRecbto"),
		}
	}

	return doc, nil
}

func extractParty(el *etree.Element, addressTag string) Party {
	if el == nil {
		return Party{}
	}
	p := Party{
		Name:              childText(el, "xNome"),
		TaxID:             partyTaxID(el),
		StateRegistration: childText(el, "IE"),
	}
	if addr := el.FindElement(addressTag); addr != nil {
		p.Address = Address{
			Street:     childText(addr, "xLgr"),
			Number:     childText(addr, "nro"),
			District:   childText(addr, "xBairro"),
			City:       childText(addr, "xMun"),
			State:      childText(addr, "UF"),
			PostalCode: childText(addr, "CEP"),
			Phone:      childText(addr, "fone"),
		}
	}
	return p
}

// partyTaxID prefers the company form (CNPJ) and falls back to the individual form (CPF).
func partyTaxID(el *etree.Element) string {
	if id := childText(el, "CNPJ"); id != "" {
		return id
	}
	return childText(el, "CPF")
}

func extractItem(det *etree.Element, seq int) Item {
	item := Item{Number: seq}
	if n, err := strconv.Atoi(det.SelectAttrValue("nItem", "")); err == nil && n > 0 {
		item.Number = n
	}

	if prod := det.FindElement("prod"); prod != nil {
		item.Code = childText(prod, "cProd")
		item.Description = childText(prod, "xProd")
		item.NCM = childText(prod, "NCM")
		item.CFOP = childText(prod, "CFOP")
		item.Unit = childText(prod, "uCom")
		item.Quantity = childText(prod, "qCom")
		item.UnitPrice = childText(prod, "vUnCom")
		item.Total = childText(prod, "vProd")
	}

	// the ICMS group nests one regime-specific element (ICMS00, ICMS60, ...);
	// the figures carry the same local names in every regime
	if imposto := det.FindElement("imposto"); imposto != nil {
		if icms := imposto.FindElement("ICMS"); icms != nil {
			item.CST = descendantText(icms, "CST")
			if item.CST == "" {
				item.CST = descendantText(icms, "CSOSN")
			}
			item.TaxBase = descendantText(icms, "vBC")
			item.TaxAmount = descendantText(icms, "vICMS")
			item.TaxRate = descendantText(icms, "pICMS")
		}
	}

	return item
}

// childText returns the trimmed text of the named direct child, or "".
func childText(el *etree.Element, tag string) string {
	if el == nil {
		return ""
	}
	child := el.FindElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// descendantText returns the trimmed text of the first descendant with the
// given local name, or "".
func descendantText(el *etree.Element, tag string) string {
	if el == nil {
		return ""
	}
	child := el.FindElement(".//" + tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
