package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIncludesCause(t *testing.T) {
	err := Wrap(CodeStoreUnavailable, "append event", stderrors.New("disk full"))
	if got := err.Error(); got != "append event: disk full" {
		t.Fatalf("error = %q, want %q", got, "append event: disk full")
	}
	if !stderrors.Is(err, &Error{Code: CodeStoreUnavailable}) {
		t.Fatal("expected errors.Is to match by code")
	}
}

func TestCodeOfTraversesWrappedChain(t *testing.T) {
	inner := New(CodeNotFound, "rocket not found")
	outer := fmt.Errorf("get rocket: %w", inner)

	if got := CodeOf(outer); got != CodeNotFound {
		t.Fatalf("code = %s, want %s", got, CodeNotFound)
	}
	if !IsCode(outer, CodeNotFound) {
		t.Fatal("expected IsCode to match")
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
}

func TestCodeMappings(t *testing.T) {
	cases := []struct {
		code     Code
		grpcCode codes.Code
		httpCode int
	}{
		{CodeNotFound, codes.NotFound, http.StatusNotFound},
		{CodeInvalidEvent, codes.InvalidArgument, http.StatusBadRequest},
		{CodeInvalidQuery, codes.InvalidArgument, http.StatusBadRequest},
		{CodeStoreUnavailable, codes.Unavailable, http.StatusServiceUnavailable},
		{CodeQueueUnavailable, codes.Unavailable, http.StatusServiceUnavailable},
		{CodeUnknown, codes.Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.grpcCode {
			t.Fatalf("%s grpc code = %s, want %s", tc.code, got, tc.grpcCode)
		}
		if got := tc.code.HTTPStatus(); got != tc.httpCode {
			t.Fatalf("%s http status = %d, want %d", tc.code, got, tc.httpCode)
		}
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeNotFound, "rocket not found", map[string]string{"rocket_id": "r-1"})

	st := status.Convert(err.ToGRPCStatus("en-US", "Rocket r-1 not found"))
	if st.Code() != codes.NotFound {
		t.Fatalf("status code = %s, want %s", st.Code(), codes.NotFound)
	}
	var info *errdetails.ErrorInfo
	for _, detail := range st.Details() {
		if typed, ok := detail.(*errdetails.ErrorInfo); ok {
			info = typed
		}
	}
	if info == nil {
		t.Fatal("expected error info detail")
	}
	if info.GetReason() != string(CodeNotFound) {
		t.Fatalf("reason = %s, want %s", info.GetReason(), CodeNotFound)
	}
	if info.GetMetadata()["rocket_id"] != "r-1" {
		t.Fatalf("metadata rocket_id = %q, want %q", info.GetMetadata()["rocket_id"], "r-1")
	}
}
