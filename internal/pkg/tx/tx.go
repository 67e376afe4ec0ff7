package tx

import (
	"context"
	"net/http"
)

type key string

// KeyTx carries the transaction wrapper through request contexts.
const KeyTx = key("tx")

// DBRepo is the slice of the repository the middleware needs: the ability to
// run a callback inside one transaction.
type DBRepo interface {
	WithTx(ctx context.Context, cb func(ctx context.Context) error) error
}

type Tx struct {
	DbRepo DBRepo
}

// TxExecute runs cb inside a store transaction when the middleware has put
// one into the context, and plain otherwise. Handlers call this around every
// multi-statement write.
func TxExecute(ctx context.Context, cb func(ctx context.Context) error) error {
	t, ok := ctx.Value(KeyTx).(Tx)
	if !ok {
		return cb(ctx)
	}
	return t.DbRepo.WithTx(ctx, cb)
}

func TxMiddlewareHTTP(repo DBRepo) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), KeyTx, Tx{DbRepo: repo})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
