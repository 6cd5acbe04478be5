package marketo

import (
	"encoding/xml"
)

const (
	// Namespace qualifies the header and every top-level body element
	Namespace = "http://www.marketo.com/mktows/"

	// APIPath is the SOAP endpoint path for API version 2.2
	APIPath = "/soap/mktows/2_2"

	// Source tags requests originating from the web service API
	Source = "MKTOWS"
)

// LeadKeyType selects which field a LeadKey matches
type LeadKeyType string

const (
	KeyIDNum           LeadKeyType = "IDNUM"
	KeyCookie          LeadKeyType = "COOKIE"
	KeyEmail           LeadKeyType = "EMAIL"
	KeyLeadOwnerEmail  LeadKeyType = "LEADOWNEREMAIL"
	KeySFDCAccountID   LeadKeyType = "SFDCACCOUNTID"
	KeySFDCContactID   LeadKeyType = "SFDCCONTACTID"
	KeySFDCLeadID      LeadKeyType = "SFDCLEADID"
	KeySFDCLeadOwnerID LeadKeyType = "SFDCLEADOWNERID"
	KeySFDCOpptyID     LeadKeyType = "SFDCOPPTYID"
)

// Declared attribute types that flattening coerces to
const (
	TypeInteger = "integer"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeFloat   = "float"
)

// Lead is the flat form of a lead: attribute name to value.
// Values are int64, float64, bool, string or nil.
type Lead map[string]interface{}

// LeadKey locates a lead
type LeadKey struct {
	KeyType  LeadKeyType `xml:"keyType"`
	KeyValue string      `xml:"keyValue"`
}

// Attribute is one entry of a lead attribute list
type Attribute struct {
	Name  string `xml:"attrName"`
	Type  string `xml:"attrType,omitempty"`
	Value string `xml:"attrValue"`
}

// LeadRecord is the wire form of a lead. A record without ID and Email is
// created as a new lead on sync.
type LeadRecord struct {
	ID                 *int64      `xml:"Id,omitempty"`
	Email              string      `xml:"Email,omitempty"`
	ForeignSysPersonID string      `xml:"ForeignSysPersonId,omitempty"`
	ForeignSysType     string      `xml:"ForeignSysType,omitempty"`
	Attributes         []Attribute `xml:"leadAttributeList>attribute"`
}

// AuthenticationHeader signs a single request
type AuthenticationHeader struct {
	XMLName   xml.Name `xml:"ns1:AuthenticationHeader"`
	NS        string   `xml:"xmlns:ns1,attr"`
	UserID    string   `xml:"mktowsUserId"`
	Signature string   `xml:"requestSignature"`
	Timestamp string   `xml:"requestTimestamp"`
}

// LookupStatus tells whether GetLeadBy matched anything
type LookupStatus int

const (
	// LookupUnknown is the zero value; no lookup has set it
	LookupUnknown LookupStatus = iota
	LookupFound
	LookupNotFound
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// LeadLookup is the result of GetLeadBy. LookupFound always comes with at
// least one lead.
type LeadLookup struct {
	Status LookupStatus
	Leads  []Lead
}

// Found reports whether at least one lead matched
func (l *LeadLookup) Found() bool {
	return l != nil && l.Status == LookupFound && len(l.Leads) > 0
}

// getLead

type ParamsGetLead struct {
	XMLName xml.Name `xml:"ns1:paramsGetLead"`
	NS      string   `xml:"xmlns:ns1,attr"`
	LeadKey LeadKey  `xml:"leadKey"`
}

type SuccessGetLead struct {
	XMLName xml.Name `xml:"successGetLead"`
	Result  struct {
		Count int `xml:"count"`
		// A single leadRecord and a list of them both decode here
		LeadRecords []LeadRecord `xml:"leadRecordList>leadRecord"`
	} `xml:"result"`
}

// syncLead

type ParamsSyncLead struct {
	XMLName       xml.Name   `xml:"ns1:paramsSyncLead"`
	NS            string     `xml:"xmlns:ns1,attr"`
	LeadRecord    LeadRecord `xml:"leadRecord"`
	ReturnLead    bool       `xml:"returnLead"`
	MarketoCookie string     `xml:"marketoCookie,omitempty"`
}

type SyncStatus struct {
	LeadID int64  `xml:"leadId"`
	Status string `xml:"status"`
	Error  string `xml:"error"`
}

type SuccessSyncLead struct {
	XMLName xml.Name `xml:"successSyncLead"`
	Result  struct {
		LeadID     int64      `xml:"leadId"`
		SyncStatus SyncStatus `xml:"syncStatus"`
		LeadRecord LeadRecord `xml:"leadRecord"`
	} `xml:"result"`
}

// getCampaignsForSource

type ParamsGetCampaignsForSource struct {
	XMLName    xml.Name `xml:"ns1:paramsGetCampaignsForSource"`
	NS         string   `xml:"xmlns:ns1,attr"`
	Source     string   `xml:"source"`
	CampaignID *int64   `xml:"campaignId,omitempty"`
	Name       *string  `xml:"name,omitempty"`
}

type CampaignRecord struct {
	ID          int64  `xml:"id"`
	Name        string `xml:"name"`
	Description string `xml:"description,omitempty"`
}

// CampaignsResult is returned by GetCampaigns as sent by the server
type CampaignsResult struct {
	ReturnCount int              `xml:"returnCount"`
	Campaigns   []CampaignRecord `xml:"campaignRecordList>campaignRecord"`
}

type SuccessGetCampaignsForSource struct {
	XMLName xml.Name        `xml:"successGetCampaignsForSource"`
	Result  CampaignsResult `xml:"result"`
}

// scheduleCampaign

type ProgramToken struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type ProgramTokenList struct {
	Tokens []ProgramToken `xml:"attrib"`
}

type ParamsScheduleCampaign struct {
	XMLName       xml.Name          `xml:"ns1:paramsScheduleCampaign"`
	NS            string            `xml:"xmlns:ns1,attr"`
	Source        string            `xml:"source"`
	ProgramName   string            `xml:"programName"`
	CampaignName  string            `xml:"campaignName"`
	CampaignRunAt string            `xml:"campaignRunAt,omitempty"`
	TokenList     *ProgramTokenList `xml:"programTokenList,omitempty"`
}

// ScheduleResult is returned by ScheduleCampaign as sent by the server
type ScheduleResult struct {
	Success bool `xml:"success"`
}

type SuccessScheduleCampaign struct {
	XMLName xml.Name       `xml:"successScheduleCampaign"`
	Result  ScheduleResult `xml:"result"`
}

// requestCampaign

type ParamsRequestCampaign struct {
	XMLName      xml.Name  `xml:"ns1:paramsRequestCampaign"`
	NS           string    `xml:"xmlns:ns1,attr"`
	Source       string    `xml:"source"`
	CampaignID   *int64    `xml:"campaignId,omitempty"`
	LeadList     []LeadKey `xml:"leadList>leadKey"`
	CampaignName string    `xml:"campaignName,omitempty"`
}

type SuccessRequestCampaign struct {
	XMLName xml.Name `xml:"successRequestCampaign"`
	Result  struct {
		Success bool `xml:"success"`
	} `xml:"result"`
}
