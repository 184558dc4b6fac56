package requestcontext

import (
	"bytes"
	"io"
	"net/http"
)

const maxCapturedBody = 8 * 1024 * 1024

// HTTPMiddleware binds a snapshot of every request to its context. Only the
// first maxCapturedBody bytes are inspected; next still reads the whole body.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil && r.Body != http.NoBody {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, maxCapturedBody))
			if err != nil {
				_ = r.Body.Close()
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = &replayBody{
				Reader: io.MultiReader(bytes.NewReader(body), r.Body),
				Closer: r.Body,
			}
		}

		rc := FromHTTPRequest(r, body)
		next.ServeHTTP(w, r.WithContext(With(r.Context(), rc)))
	})
}

// replayBody serves the captured prefix, then the rest of the original body.
type replayBody struct {
	io.Reader
	io.Closer
}
