package location

import (
	"context"

	"github.com/tmoreno/drivermate/internal/routing"
)

// Static is a fixed-position sampler. It mimics the Sampler contract so the
// rest of the app can keep its tracking lifecycle while real GPS wiring is
// added later.
func Static(p routing.Point) Sampler {
	return SamplerFunc(func(ctx context.Context) (routing.Point, error) {
		return p, nil
	})
}
