package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/repo/csvrepo"
	"github.com/milad/co2info/internal/service"
	grpcserver "github.com/milad/co2info/internal/transport/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// This is a light end-to-end test:
// HTTP handler -> gRPC client -> in-memory gRPC server -> service -> repo.
func TestHTTP_ToGRPC_EndToEnd(t *testing.T) {
	t.Parallel()

	db, _, err := csvrepo.ParseMetersCSV(strings.NewReader(strings.TrimSpace(`
Time,Temp,Room A,Room B
2024-01-01 08:00:00,20.5,450,1500
2024-01-01 08:15:00,20.6,N/A,700
`)), domain.DefaultLimits())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	svc := service.NewMeterService(csvrepo.New(db))

	lis := bufconn.Listen(1024 * 1024)
	g := grpc.NewServer()
	grpcserver.Register(g, grpcserver.New(svc))
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	httpSrv := New(grpcserver.NewClient(conn))

	rr := httptest.NewRecorder()
	httpSrv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/broken", nil))
	if got, want := rr.Code, http.StatusOK; got != want {
		t.Fatalf("status=%d want %d, body=%s", got, want, rr.Body.String())
	}
	var broken readingsResponseJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &broken); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(broken.Readings) != 1 {
		t.Fatalf("len=%d want 1", len(broken.Readings))
	}
	if r := broken.Readings[0]; r.Meter != "Room A" || r.Time != "2024-01-01T08:15:00Z" || r.Value != nil || r.Raw != "N/A" {
		t.Fatalf("unexpected broken reading: %#v", r)
	}

	rr = httptest.NewRecorder()
	httpSrv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/averages", nil))
	var averages metersResponseJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &averages); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(averages.Meters) != 2 || *averages.Meters[0].Average != 450 || *averages.Meters[1].Average != 1100 {
		t.Fatalf("unexpected averages: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	httpSrv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/meters/Garage", nil))
	if got, want := rr.Code, http.StatusNotFound; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
}
