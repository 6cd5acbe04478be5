package marketo

import (
	"errors"

	"github.com/natserract/mktows/pkg/soap"
)

// Service exception codes
const (
	CodeLeadNotFound = "20103"
)

// ErrorCode returns the Marketo service exception code carried by err,
// or "" when err is not a SOAP fault.
func ErrorCode(err error) string {
	var fault *soap.Fault
	if errors.As(err, &fault) {
		return fault.ServiceCode()
	}
	return ""
}

func isLeadNotFound(err error) bool {
	return ErrorCode(err) == CodeLeadNotFound
}
