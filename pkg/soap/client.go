// Package soap calls operations of a SOAP 1.1 endpoint described by a WSDL.
// The WSDL is read once to learn which operations exist and their
// soapAction; calls go through gowsdl with a header element per call, and a
// fault in the reply is returned as *Fault with its service exception.
package soap

import (
	"context"
	"errors"
	"fmt"

	gowsdl "github.com/hooklift/gowsdl/soap"
	httpclient "github.com/natserract/mktows/pkg/http"
	"go.uber.org/zap"
)

// Client calls operations of a single SOAP endpoint
type Client struct {
	endpoint    string
	definitions *Definitions
	httpClient  *httpclient.Client
	logger      *zap.Logger
}

// NewClient fetches the WSDL at wsdlURL and returns a client posting to endpoint.
// It fails when the WSDL cannot be fetched or parsed.
func NewClient(ctx context.Context, endpoint, wsdlURL string, httpClient *httpclient.Client, logger *zap.Logger) (*Client, error) {
	logger.Info("Loading WSDL", zap.String("url", wsdlURL))

	defs, err := FetchDefinitions(ctx, httpClient, wsdlURL)
	if err != nil {
		logger.Error("Failed to load WSDL", zap.Error(err), zap.String("url", wsdlURL))
		return nil, err
	}

	logger.Info("Loaded WSDL",
		zap.String("target_namespace", defs.TargetNamespace),
		zap.Int("operations", len(defs.operations)))

	return &Client{
		endpoint:    endpoint,
		definitions: defs,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Definitions returns the parsed WSDL
func (c *Client) Definitions() *Definitions {
	return c.definitions
}

// Call invokes operation. header (optional) goes into the envelope header and
// request into the body; the body element of the reply is decoded into
// response. A fault in the reply is returned as *Fault. Calls are sent once.
func (c *Client) Call(ctx context.Context, operation string, header, request, response interface{}) error {
	op, ok := c.definitions.Operation(operation)
	if !ok {
		return fmt.Errorf("operation %s is not declared by the WSDL", operation)
	}

	// gowsdl keeps headers on the client, so each call gets its own
	client := gowsdl.NewClient(c.endpoint,
		gowsdl.WithHTTPClient(faultPassthrough{next: c.httpClient.Sender()}),
		gowsdl.WithHTTPHeaders(map[string]string{"Accept": "text/xml"}),
	)
	if header != nil {
		client.SetHeaders(header)
	}

	c.logger.Debug("Calling SOAP operation",
		zap.String("operation", operation),
		zap.String("endpoint", c.endpoint))

	detail := &FaultDetail{}
	err := client.CallContextWithFaultDetail(ctx, `"`+op.SOAPAction+`"`, request, response, detail)
	if err != nil {
		var soapFault *gowsdl.SOAPFault
		if errors.As(err, &soapFault) {
			fault := newFault(soapFault, detail)
			c.logger.Debug("SOAP fault",
				zap.String("operation", operation),
				zap.String("fault_code", fault.Code),
				zap.String("service_code", fault.ServiceCode()))
			return fault
		}

		var httpErr *gowsdl.HTTPError
		if errors.As(err, &httpErr) {
			c.logger.Error("SOAP request rejected",
				zap.Int("status_code", httpErr.StatusCode),
				zap.String("operation", operation))
			return fmt.Errorf("%s request failed: status %d: %s", operation, httpErr.StatusCode, httpErr.ResponseBody)
		}

		c.logger.Error("SOAP request failed", zap.Error(err), zap.String("operation", operation))
		return fmt.Errorf("%s request failed: %w", operation, err)
	}

	c.logger.Debug("SOAP operation succeeded", zap.String("operation", operation))
	return nil
}
