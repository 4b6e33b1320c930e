package shared

import (
	"time"

	"github.com/go-playground/form"
	"github.com/google/uuid"
)

// Decoder decodes url.Values into request structs. UUID and RFC3339 time
// fields are handled through custom type funcs.
var Decoder = newDecoder()

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return uuid.Parse(vals[0])
	}, uuid.UUID{})
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return time.Parse(time.RFC3339, vals[0])
	}, time.Time{})
	d.SetMode(form.ModeImplicit)
	return d
}
