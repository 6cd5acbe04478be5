package soap

import (
	"context"
	"encoding/xml"
	"fmt"

	httpclient "github.com/natserract/mktows/pkg/http"
)

// Definitions is the subset of a WSDL 1.1 document the client needs:
// which operations exist and their soapAction.
type Definitions struct {
	XMLName         xml.Name   `xml:"definitions"`
	Name            string     `xml:"name,attr"`
	TargetNamespace string     `xml:"targetNamespace,attr"`
	PortTypes       []portType `xml:"portType"`
	Bindings        []binding  `xml:"binding"`
	operations      map[string]Operation
}

// Operation is a callable remote operation
type Operation struct {
	Name       string
	SOAPAction string
}

type portType struct {
	Name       string `xml:"name,attr"`
	Operations []struct {
		Name string `xml:"name,attr"`
	} `xml:"operation"`
}

type binding struct {
	Name       string             `xml:"name,attr"`
	Operations []bindingOperation `xml:"operation"`
}

type bindingOperation struct {
	Name string `xml:"name,attr"`
	// soap:operation shares the local name of its wsdl:operation parent
	SOAP struct {
		SOAPAction string `xml:"soapAction,attr"`
	} `xml:"operation"`
}

// ParseDefinitions decodes a WSDL document
func ParseDefinitions(data []byte) (*Definitions, error) {
	var defs Definitions
	if err := xml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse WSDL: %w", err)
	}

	defs.operations = make(map[string]Operation)
	for _, pt := range defs.PortTypes {
		for _, op := range pt.Operations {
			defs.operations[op.Name] = Operation{Name: op.Name}
		}
	}
	for _, b := range defs.Bindings {
		for _, op := range b.Operations {
			defs.operations[op.Name] = Operation{Name: op.Name, SOAPAction: op.SOAP.SOAPAction}
		}
	}

	if len(defs.operations) == 0 {
		return nil, fmt.Errorf("failed to parse WSDL: no operations declared")
	}

	return &defs, nil
}

// FetchDefinitions downloads and parses the WSDL at wsdlURL
func FetchDefinitions(ctx context.Context, client *httpclient.Client, wsdlURL string) (*Definitions, error) {
	resp, err := client.Get(ctx, wsdlURL, map[string]string{"Accept": "text/xml"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch WSDL %s: %w", wsdlURL, err)
	}
	return ParseDefinitions(resp.Body)
}

// Operation looks up an operation by name
func (d *Definitions) Operation(name string) (Operation, bool) {
	op, ok := d.operations[name]
	return op, ok
}
