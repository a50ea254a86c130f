package httpx

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor picks the request id out of the incoming metadata
// (or mints one) and logs every call the way Logger logs HTTP requests.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	key := strings.ToLower(HeaderRequestID)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		rid := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(key); len(ids) > 0 {
				rid = ids[0]
			}
		}
		if rid == "" {
			rid = uuid.NewString()
		}

		start := time.Now()
		resp, err := handler(WithRequestID(ctx, rid), req)
		log.Printf("[grpc] rid=%s %s code=%s dur=%s", rid, info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}
