package soap

import (
	"fmt"
	"net/http"
	"strings"

	gowsdl "github.com/hooklift/gowsdl/soap"
)

// Fault is a SOAP 1.1 fault. Marketo places the service exception in detail.
type Fault struct {
	Code   string
	String string
	Actor  string
	Detail FaultDetail
}

// FaultDetail is the detail element of a Marketo fault
type FaultDetail struct {
	ServiceException ServiceException `xml:"serviceException"`
}

// ServiceException carries the API specific error code, e.g. "20103"
type ServiceException struct {
	Name    string `xml:"name"`
	Message string `xml:"message"`
	Code    string `xml:"code"`
}

func (d *FaultDetail) ErrorString() string {
	return fmt.Sprintf("code %s: %s", d.ServiceException.Code, d.ServiceException.Message)
}

func (d *FaultDetail) HasData() bool {
	return d.ServiceException.Code != ""
}

func (f *Fault) Error() string {
	if f.Detail.HasData() {
		return fmt.Sprintf("soap fault %s: %s (%s)", f.Code, f.String, f.Detail.ErrorString())
	}
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// ServiceCode returns the service exception code, or "" when absent
func (f *Fault) ServiceCode() string {
	return f.Detail.ServiceException.Code
}

func newFault(f *gowsdl.SOAPFault, detail *FaultDetail) *Fault {
	return &Fault{
		Code:   f.Code,
		String: f.String,
		Actor:  f.Actor,
		Detail: *detail,
	}
}

// faultPassthrough hands XML replies sent with status 500 to the SOAP client
// as ordinary responses. SOAP 1.1 servers report faults that way, and gowsdl
// only decodes bodies of non-error statuses.
type faultPassthrough struct {
	next gowsdl.HTTPClient
}

func (f faultPassthrough) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.next.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusInternalServerError && strings.Contains(contentType, "xml") {
		resp.StatusCode = http.StatusOK
	}
	if contentType == "" {
		// gowsdl parses the media type of every reply
		resp.Header.Set("Content-Type", "text/xml")
	}
	return resp, nil
}
