// Package marketo provides a client for the Marketo SOAP API, version 2.2.
//
// Marketo is a marketing automation platform. Its SOAP API manages leads
// (contact records) and campaigns (marketing workflows leads are enrolled into).
// Every call carries an AuthenticationHeader signed with HMAC-SHA1 over a fresh
// timestamp and the user id.
//
// Leads are exchanged on the wire as typed attribute lists. This package
// converts them to and from Lead, a flat map of attribute name to value, and
// exposes the lead and campaign operations:
//   - GetLeadBy: look up leads by IDNUM, EMAIL, SFDCCONTACTID, SFDCLEADID, ...
//   - SyncLead: create or update a lead
//   - GetCampaigns: list campaigns available to the API
//   - ScheduleCampaign: schedule a campaign run with program tokens
//   - AddToCampaign: request a campaign for one or more leads
package marketo

import (
	"context"
	"fmt"
	"time"

	"github.com/natserract/mktows/pkg/config"
	httpclient "github.com/natserract/mktows/pkg/http"
	"github.com/natserract/mktows/pkg/soap"
	"go.uber.org/zap"
)

// Operations the WSDL must declare
var requiredOperations = []string{
	"getLead",
	"syncLead",
	"getCampaignsForSource",
	"scheduleCampaign",
	"requestCampaign",
}

// Marketo is the main client for the Marketo SOAP API
type Marketo struct {
	config   *config.Config
	endpoint string
	soap     *soap.Client
	logger   *zap.Logger
	now      func() time.Time
}

// Endpoint returns the SOAP endpoint for an API host
func Endpoint(host string) string {
	return "https://" + host + APIPath
}

// NewMarketo creates a new Marketo client with default production logger.
// It fetches the WSDL and fails if it is unreachable or invalid.
func NewMarketo(ctx context.Context, cfg *config.Config) (*Marketo, error) {
	logger, _ := zap.NewProduction()
	return NewMarketoWithLogger(ctx, cfg, logger)
}

// NewMarketoWithLogger creates a new Marketo client with a custom logger
func NewMarketoWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Marketo, error) {
	httpClient := httpclient.NewClientWithLogger(logger, config.ConnectTimeout, cfg.MaxTries)
	return newMarketo(ctx, cfg, logger, Endpoint(cfg.APIHost), httpClient)
}

func newMarketo(ctx context.Context, cfg *config.Config, logger *zap.Logger, endpoint string, httpClient *httpclient.Client) (*Marketo, error) {
	wsdlURL, err := httpclient.BuildURL(endpoint, "", "WSDL")
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	soapClient, err := soap.NewClient(ctx, endpoint, wsdlURL, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SOAP client: %w", err)
	}

	for _, name := range requiredOperations {
		if _, ok := soapClient.Definitions().Operation(name); !ok {
			logger.Error("WSDL is missing a required operation", zap.String("operation", name))
			return nil, fmt.Errorf("failed to initialize SOAP client: WSDL does not declare %s", name)
		}
	}

	logger.Info("Marketo client ready",
		zap.String("endpoint", endpoint),
		zap.String("user_id", cfg.UserID))

	return &Marketo{
		config:   cfg,
		endpoint: endpoint,
		soap:     soapClient,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// call signs and sends one operation
func (m *Marketo) call(ctx context.Context, operation string, request, response interface{}) error {
	return m.soap.Call(ctx, operation, m.authenticate(), request, response)
}
