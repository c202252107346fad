package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// Catalog resolves product ids to current catalog rows in one batch.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// ReconcilerParams wires a Reconciler for one request.
type ReconcilerParams struct {
	Identity auth.Identity
	Device   Store
	User     Store
	Catalog  Catalog
	Logger   *logger.Logger
	Metrics  *metrics.Storefront
}

// Reconciler serves one caller's cart. It is built per request and holds no
// state beyond whether it already merged the device cart into the user cart.
type Reconciler struct {
	identity auth.Identity
	device   Store
	user     Store
	catalog  Catalog
	logg     *logger.Logger
	metrics  *metrics.Storefront
	merged   bool
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Device == nil {
		return nil, errors.New("device store required")
	}
	if params.User == nil {
		return nil, errors.New("user store required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog required")
	}
	if params.Identity.DeviceID == "" && !params.Identity.IsAuthenticated() {
		return nil, errors.New("identity requires a device or user id")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Reconciler{
		identity: params.Identity,
		device:   params.Device,
		user:     params.User,
		catalog:  params.Catalog,
		logg:     logg,
		metrics:  params.Metrics,
	}, nil
}

func (r *Reconciler) Identity() auth.Identity {
	return r.identity
}

// Initialize merges the device cart into the user cart when authenticated,
// then loads and hydrates the active backend.
func (r *Reconciler) Initialize(ctx context.Context) (Cart, error) {
	return r.reload(ctx)
}

// AddToCart adds quantity on top of whatever the active backend holds.
func (r *Reconciler) AddToCart(ctx context.Context, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	pid, err := parseProductID(productID)
	if err != nil {
		return Cart{}, err
	}
	products, err := r.catalog.FindByIDs(ctx, []uuid.UUID{pid})
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if len(products) == 0 {
		return Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	r.ensureMerged(ctx)
	store, scope := r.active()
	lines, err := store.List(ctx, scope)
	if err != nil {
		return Cart{}, err
	}
	next := quantity
	for _, line := range lines {
		if line.ProductID == pid.String() {
			next += line.Quantity
			break
		}
	}
	if err := store.Upsert(ctx, scope, pid.String(), next); err != nil {
		return Cart{}, err
	}
	return r.reload(ctx)
}

// UpdateQuantity overwrites the quantity of a line already in the cart;
// zero or less removes it. Unknown lines are NotFound, never created.
func (r *Reconciler) UpdateQuantity(ctx context.Context, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return r.RemoveFromCart(ctx, productID)
	}
	pid, err := parseProductID(productID)
	if err != nil {
		return Cart{}, err
	}
	r.ensureMerged(ctx)
	store, scope := r.active()
	lines, err := store.List(ctx, scope)
	if err != nil {
		return Cart{}, err
	}
	if !containsLine(lines, pid.String()) {
		return Cart{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err := store.Upsert(ctx, scope, pid.String(), quantity); err != nil {
		return Cart{}, err
	}
	return r.reload(ctx)
}

func (r *Reconciler) RemoveFromCart(ctx context.Context, productID string) (Cart, error) {
	pid, err := parseProductID(productID)
	if err != nil {
		return Cart{}, err
	}
	r.ensureMerged(ctx)
	store, scope := r.active()
	if err := store.Remove(ctx, scope, pid.String()); err != nil {
		return Cart{}, err
	}
	return r.reload(ctx)
}

func (r *Reconciler) ClearCart(ctx context.Context) (Cart, error) {
	r.ensureMerged(ctx)
	store, scope := r.active()
	if err := store.Clear(ctx, scope); err != nil {
		return Cart{}, err
	}
	return r.reload(ctx)
}

// ClearAfterCheckout empties both scopes. Failures are returned combined so
// the caller can log them; nothing is retried.
func (r *Reconciler) ClearAfterCheckout(ctx context.Context) error {
	var err error
	if r.identity.IsAuthenticated() {
		err = multierr.Append(err, r.user.Clear(ctx, r.identity.UserID))
	}
	if r.identity.DeviceID != "" {
		err = multierr.Append(err, r.device.Clear(ctx, r.identity.DeviceID))
	}
	return err
}

// Hydrate joins raw lines with the catalog in a single lookup. Lines whose
// product no longer exists are dropped and counted.
func (r *Reconciler) Hydrate(ctx context.Context, raw []RawLine) (Cart, error) {
	if len(raw) == 0 {
		return NewCart(nil), nil
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, line := range raw {
		if id, err := uuid.Parse(line.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	products, err := r.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hydrate cart")
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID.String()] = p
	}

	lines := make([]Line, 0, len(raw))
	var missing []string
	for _, rl := range raw {
		p, ok := byID[strings.ToLower(rl.ProductID)]
		if !ok {
			missing = append(missing, rl.ProductID)
			continue
		}
		lines = append(lines, Line{
			ProductID:          p.ID.String(),
			Quantity:           rl.Quantity,
			Title:              p.Title,
			Price:              p.Price,
			DiscountPercentage: p.DiscountPercentage,
			Thumbnail:          deref(p.Thumbnail),
			Stock:              p.Stock,
		})
	}
	if len(missing) > 0 {
		r.metrics.AddDroppedCartLines(len(missing))
		r.logg.Warn(r.logg.WithField(r.logCtx(ctx), "missing_product_ids", missing), "dropping cart lines for missing products")
	}
	return NewCart(lines), nil
}

func containsLine(lines []RawLine, productID string) bool {
	for _, line := range lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

func (r *Reconciler) reload(ctx context.Context) (Cart, error) {
	r.ensureMerged(ctx)
	store, scope := r.active()
	raw, err := store.List(ctx, scope)
	if err != nil {
		return Cart{}, err
	}
	return r.Hydrate(ctx, raw)
}

func (r *Reconciler) active() (Store, string) {
	if r.identity.IsAuthenticated() {
		return r.user, r.identity.UserID
	}
	return r.device, r.identity.DeviceID
}

// ensureMerged moves device lines into the user cart once per Reconciler.
// Local quantities win on conflict. The device cart is cleared only when
// every line merged; otherwise the merged lines are removed and the failed
// ones stay behind for the next request to retry.
func (r *Reconciler) ensureMerged(ctx context.Context) {
	if r.merged || !r.identity.IsAuthenticated() || r.identity.DeviceID == "" {
		return
	}
	r.merged = true
	ctx = r.logCtx(ctx)

	local, err := r.device.List(ctx, r.identity.DeviceID)
	if err != nil {
		r.metrics.IncCartMerge("failed")
		r.logg.Error(ctx, "cart merge: read device cart", err)
		return
	}
	if len(local) == 0 {
		return
	}

	var mergeErr error
	var mergedIDs []string
	for _, line := range local {
		if err := r.user.Upsert(ctx, r.identity.UserID, line.ProductID, line.Quantity); err != nil {
			mergeErr = multierr.Append(mergeErr, err)
			continue
		}
		mergedIDs = append(mergedIDs, line.ProductID)
	}

	if mergeErr == nil {
		if err := r.device.Clear(ctx, r.identity.DeviceID); err != nil {
			r.metrics.IncCartMerge("partial")
			r.logg.Error(ctx, "cart merge: clear device cart", err)
			return
		}
		r.metrics.IncCartMerge("merged")
		r.logg.Info(r.logg.WithField(ctx, "lines", len(local)), "merged device cart into user cart")
		return
	}

	for _, id := range mergedIDs {
		mergeErr = multierr.Append(mergeErr, r.device.Remove(ctx, r.identity.DeviceID, id))
	}
	r.metrics.IncCartMerge("partial")
	ctx = r.logg.WithFields(ctx, map[string]any{
		"merged_lines": len(mergedIDs),
		"failed_lines": len(local) - len(mergedIDs),
	})
	r.logg.Error(ctx, "cart merge incomplete; unmerged lines kept on device", mergeErr)
}

func (r *Reconciler) logCtx(ctx context.Context) context.Context {
	ctx = r.logg.WithDeviceID(ctx, r.identity.DeviceID)
	if r.identity.IsAuthenticated() {
		ctx = r.logg.WithUserID(ctx, r.identity.UserID)
	}
	return ctx
}

func parseProductID(productID string) (uuid.UUID, error) {
	pid, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	return pid, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
