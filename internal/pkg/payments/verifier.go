package payments

import (
	"context"
	"errors"
	"log"
)

// VerifyStatus classifies the outcome of a client purchase re-check.
type VerifyStatus int

const (
	// VerifyGranted means the upstream order is charged, matches the
	// expected item and covers at least the catalog price.
	VerifyGranted VerifyStatus = iota
	// VerifyNotFound means the upstream has no such order.
	VerifyNotFound
	// VerifyNotCharged is the legitimate negative outcome: the order
	// exists but is not in the charged terminal state, or its item or
	// amount does not match the claim.
	VerifyNotCharged
)

// VerifyResult carries the grant decision plus the upstream record for
// the 409 response body.
type VerifyResult struct {
	Status VerifyStatus
	Order  *VKOrder
}

// OrderVerifier is the sole trust boundary for unlocking the in-app
// reward. The purchase event the widget receives from the host SDK is
// never sufficient on its own: the claim is re-checked against the
// provider's order-status API with the application's own credential.
type OrderVerifier struct {
	catalog     *Catalog
	api         *VKClient
	creds       *Credentials
	requireSign bool
}

// NewOrderVerifier wires the verifier. requireSign=false is only for
// local testing against unsigned requests.
func NewOrderVerifier(catalog *Catalog, api *VKClient, creds *Credentials, requireSign bool) *OrderVerifier {
	return &OrderVerifier{catalog: catalog, api: api, creds: creds, requireSign: requireSign}
}

// CheckSign validates the client's launch-params signature. Always true
// when sign enforcement is disabled by configuration. The error return
// is a missing-credential configuration problem, never a bad signature.
func (v *OrderVerifier) CheckSign(vkParams map[string]string) (bool, error) {
	if !v.requireSign {
		return true, nil
	}
	secret, err := v.creds.VKSecret(vkParams["vk_app_id"])
	if err != nil {
		return false, err
	}
	return CheckVKLaunchSign(vkParams, secret), nil
}

// VerifyOrder re-checks a purchase claim against orders.getById. A
// returned error means the upstream was unavailable; callers must fail
// closed and deny the reward.
func (v *OrderVerifier) VerifyOrder(ctx context.Context, appOrderID, itemID string) (VerifyResult, error) {
	order, err := v.api.OrdersGetByID(ctx, appOrderID)
	if errors.Is(err, ErrOrderNotFound) {
		return VerifyResult{Status: VerifyNotFound}, nil
	}
	if err != nil {
		log.Printf("payments: order verification upstream failure for %q: %v", appOrderID, err)
		return VerifyResult{}, err
	}

	if order.Status != "charged" {
		return VerifyResult{Status: VerifyNotCharged, Order: order}, nil
	}
	if itemID != "" && order.Item != itemID {
		return VerifyResult{Status: VerifyNotCharged, Order: order}, nil
	}
	if order.Amount < v.minAmount(itemID) {
		return VerifyResult{Status: VerifyNotCharged, Order: order}, nil
	}
	return VerifyResult{Status: VerifyGranted, Order: order}, nil
}

// minAmount is the catalog price of the expected item, or 1 when no
// item was asserted so a zero-amount order can never unlock anything.
func (v *OrderVerifier) minAmount(itemID string) int64 {
	if itemID != "" {
		if item, ok := v.catalog.ResolveItem(itemID); ok {
			return int64(item.Price)
		}
	}
	return 1
}
