package danfe

import (
	"strings"
	"testing"

	"github.com/utilhub/nfequery/internal/nfe"
)

func sampleDocument() *nfe.Document {
	return &nfe.Document{
		AccessKey:       "35240112345678000190550010000012341000012349",
		Number:          "1234",
		Series:          "1",
		IssueDate:       "2024-01-15T10:30:00-03:00",
		OperationNature: "VENDA DE MERCADORIA",
		Issuer: nfe.Party{
			Name:              "ACME LTDA",
			TaxID:             "12345678000190",
			StateRegistration: "123456789012",
			Address: nfe.Address{
				Street: "RUA DAS FLORES", Number: "100", District: "CENTRO",
				City: "SAO PAULO", State: "SP", PostalCode: "01001000",
			},
		},
		Recipient: nfe.Party{
			Name:  "JOAO DA SILVA",
			TaxID: "12345678901",
		},
		Items: []nfe.Item{
			{Number: 1, Code: "SKU-001", Description: "WIDGET", Unit: "UN", Quantity: "2.0000", UnitPrice: "30.00", Total: "60.00"},
			{Number: 2, Code: "SKU-002", Description: "GADGET", Unit: "UN", Quantity: "1.0000", UnitPrice: "40.00", Total: "40.00"},
		},
		Totals: nfe.Totals{
			ICMSBase: "60.00", ICMS: "10.80", ProductsTotal: "100.00", GrandTotal: "100.00",
		},
		Protocol: nfe.Protocol{Number: "135240000012345", Timestamp: "2024-01-15T10:31:02-03:00"},
	}
}

func TestRender(t *testing.T) {
	html, err := Render(sampleDocument())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wantFragments := []string{
		"<!DOCTYPE html>",
		"3524 0112 3456 7800 0190 5500 1000 0012 3410 0001 2349",
		"12.345.678/0001-90",
		"123.456.789-01",
		"15/01/2024",
		"ACME LTDA",
		"WIDGET",
		"GADGET",
		"R$ 100.00",
		"135240000012345",
		"Gerado por Util Hub",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(html, fragment) {
			t.Errorf("rendered page is missing %q", fragment)
		}
	}
}

func TestRender_EscapesDocumentContent(t *testing.T) {
	doc := sampleDocument()
	doc.Issuer.Name = `<script>alert("x")</script>`

	html, err := Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("document content was not escaped")
	}
}

func TestRender_OptionalSections(t *testing.T) {
	doc := sampleDocument()

	html, err := Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(html, "Transporte") || strings.Contains(html, "Duplicatas") {
		t.Error("optional sections rendered for a document without them")
	}

	doc.Transport.Carrier = nfe.Party{Name: "TRANSPORTES RAPIDOS SA", TaxID: "99999999000199"}
	doc.Installments = []nfe.Installment{{Number: "001", DueDate: "2024-02-15", Amount: "50.00"}}

	html, err = Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, fragment := range []string{"TRANSPORTES RAPIDOS SA", "99.999.999/0001-99", "15/02/2024", "50.00"} {
		if !strings.Contains(html, fragment) {
			t.Errorf("rendered page is missing %q", fragment)
		}
	}
}

func TestRender_EmptyDocument(t *testing.T) {
	html, err := Render(&nfe.Document{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(html, "DANFE") {
		t.Error("rendered page is missing the header")
	}
}
