package errors

import (
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Domain is the error domain reported in gRPC error details.
	Domain = "github.com/louisbranch/rocketwatch"
	// DefaultLocale is the locale reported with client-facing messages.
	DefaultLocale = "en-US"
)

// ToGRPCStatus converts the error to a gRPC status carrying ErrorInfo and a
// LocalizedMessage. The status message keeps the internal text.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	st := status.New(e.Code.GRPCCode(), e.Message)
	detailed, err := st.WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	)
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// HandleError converts domain errors to gRPC status for client responses.
// Client errors keep their message; server errors report a generic one.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		userMsg := appErr.Message
		switch appErr.Code.GRPCCode() {
		case codes.Internal, codes.Unavailable:
			userMsg = "the service is temporarily unavailable"
		}
		return appErr.ToGRPCStatus(locale, userMsg)
	}

	return status.Error(codes.Internal, "an unexpected error occurred")
}
