package api

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/oakmart/promotions/internal/domain/product"
)

// writeJSON encodes a response body with the given builder and writes it
// with the given status code.
func writeJSON(w http.ResponseWriter, status int, build func(e *jx.Encoder)) {
	var e jx.Encoder
	build(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error body {"code": ..., "message": ...}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeInternalError logs the error detail and responds with a generic 500.
// Internal error text never reaches the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	e.FieldStart("categoryId")
	e.Str(p.CategoryID)
	e.FieldStart("imageUrl")
	e.Str(p.ImageURL)
	e.ObjEnd()
}
