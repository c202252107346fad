package cart

import (
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Factory holds the long-lived collaborators and hands out one Reconciler
// per request.
type Factory struct {
	device  Store
	user    Store
	catalog Catalog
	logg    *logger.Logger
	metrics *metrics.Storefront
}

func NewFactory(device, user Store, catalog Catalog, logg *logger.Logger, m *metrics.Storefront) *Factory {
	return &Factory{device: device, user: user, catalog: catalog, logg: logg, metrics: m}
}

func (f *Factory) ForIdentity(identity auth.Identity) (*Reconciler, error) {
	return NewReconciler(ReconcilerParams{
		Identity: identity,
		Device:   f.device,
		User:     f.user,
		Catalog:  f.catalog,
		Logger:   f.logg,
		Metrics:  f.metrics,
	})
}
