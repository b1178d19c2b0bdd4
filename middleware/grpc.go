package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/pipeline"
)

// GRPCConfig configures the gRPC guard interceptor.
type GRPCConfig struct {
	// Channel reported on checks originating from this interceptor.
	Channel string `json:"channel"`

	// Metadata extraction
	RequestIDMetadata string `json:"request_id_metadata"`

	// Behavior
	BlockOnUnsafe     bool `json:"block_on_unsafe"`
	InjectAttestation bool `json:"inject_attestation"`

	// Exemptions
	ExemptMethods []string `json:"exempt_methods"`
}

// DefaultGRPCConfig returns default gRPC interceptor configuration.
func DefaultGRPCConfig() *GRPCConfig {
	return &GRPCConfig{
		Channel:           "grpc",
		RequestIDMetadata: "x-request-id",
		BlockOnUnsafe:     true,
		InjectAttestation: true,
		ExemptMethods: []string{
			"/grpc.health.v1.Health/Check",
			"/grpc.health.v1.Health/Watch",
		},
	}
}

// ContentCarrier is implemented by request messages whose text content should
// be checked before the handler runs.
type ContentCarrier interface {
	GetContent() string
}

// UnaryServerInterceptor returns a gRPC unary interceptor that checks request
// content through the gate. Messages that do not implement ContentCarrier
// pass through unchecked.
func UnaryServerInterceptor(gate pipeline.Gate, config *GRPCConfig) grpc.UnaryServerInterceptor {
	if config == nil {
		config = DefaultGRPCConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isExemptMethod(info.FullMethod, config.ExemptMethods) {
			return handler(ctx, req)
		}

		carrier, ok := req.(ContentCarrier)
		if !ok {
			return handler(ctx, req)
		}

		content := carrier.GetContent()
		if content == "" {
			return handler(ctx, req)
		}

		checkReq := pipeline.CheckRequest{
			Content: content,
			Channel: config.Channel,
		}
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(attest.HeaderAttestation); len(values) > 0 {
				if existing, err := attest.DecodeAttestation(values[0]); err == nil {
					checkReq.Attestation = existing
				}
			}
		}

		result, err := gate.Check(ctx, checkReq)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "safety check failed: %v", err)
		}

		if result.Blocked && config.BlockOnUnsafe {
			return nil, status.Errorf(codes.PermissionDenied, "content blocked: %s", result.Report.Recommendation)
		}

		if config.InjectAttestation && result.Attestation != nil {
			if encoded, encErr := attest.EncodeAttestation(result.Attestation); encErr == nil {
				_ = grpc.SetHeader(ctx, metadata.Pairs(attest.HeaderAttestation, encoded))
			}
		}

		return handler(ctx, req)
	}
}
