package httpx

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Serve runs srv until ctx is done and then shuts it down, giving in-flight
// requests up to 10s to finish.
func Serve(ctx context.Context, name string, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("[%s] listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Printf("[%s] shutting down", name)
	return srv.Shutdown(shutdownCtx)
}
