package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/milad/co2info/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const upstreamTimeout = 5 * time.Second

type readingsFunc func(ctx context.Context, selector string) ([]service.MeterReading, error)

func upstreamContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), upstreamTimeout)
}

// checkUpstream records the call and, on failure, writes the matching API
// error. It reports whether the caller should go on writing a response.
func checkUpstream(w http.ResponseWriter, method string, start time.Time, err error) bool {
	dur := time.Since(start)
	code := upstreamCode(err)
	observeUpstreamGRPC(method, code.String(), dur)

	switch code {
	case codes.OK:
		return true
	case codes.NotFound:
		writeAPIError(w, http.StatusNotFound, "not_found", errorMessage(err))
	case codes.InvalidArgument:
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", errorMessage(err))
	case codes.DeadlineExceeded:
		writeAPIError(w, http.StatusGatewayTimeout, "upstream_timeout", "upstream timeout")
	default:
		writeAPIError(w, http.StatusBadGateway, "upstream_error", "upstream error")
	}
	return false
}

// upstreamCode maps both gRPC status errors and in-process service errors
// onto a status code.
func upstreamCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, service.ErrMeterNotFound):
		return codes.NotFound
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Unknown
}

func errorMessage(err error) string {
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}
