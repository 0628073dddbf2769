package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/nemanja-m/gopool/internal/health"
)

func main() {
	var (
		addr    = flag.String("addr", "localhost:9090", "health server address")
		service = flag.String("service", health.ServiceName, "service to check (empty for the whole server)")
		timeout = flag.Duration("timeout", 3*time.Second, "probe timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := health.Probe(ctx, *addr, *service)
	if err != nil {
		log.Fatalf("Probe failed: %v", err)
	}

	out, err := protojson.Marshal(resp)
	if err != nil {
		log.Fatalf("Failed to encode response: %v", err)
	}
	fmt.Println(string(out))

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}
