package auth

import (
	"fmt"

	"commerce-graph/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderUpdateRule decides who may update an order
type OrderUpdateRule string

const (
	// OrderUpdateClientOrOrder lets the owner of the order's client or the
	// owner of the order update it.
	OrderUpdateClientOrOrder OrderUpdateRule = "client_or_order"
	// OrderUpdateClientAndOrder requires the caller to own both.
	OrderUpdateClientAndOrder OrderUpdateRule = "client_and_order"
)

// Policy holds the ownership rules that differ between deployments
type Policy struct {
	OrderUpdate      OrderUpdateRule
	ProductOwnership bool
}

// DefaultPolicy matches the behaviour existing clients rely on
func DefaultPolicy() Policy {
	return Policy{
		OrderUpdate:      OrderUpdateClientOrOrder,
		ProductOwnership: false,
	}
}

// ParseOrderUpdateRule validates a configured rule name
func ParseOrderUpdateRule(s string) (OrderUpdateRule, error) {
	switch OrderUpdateRule(s) {
	case OrderUpdateClientOrOrder, OrderUpdateClientAndOrder:
		return OrderUpdateRule(s), nil
	default:
		return "", fmt.Errorf("unknown order update rule %q", s)
	}
}

// Guard applies ownership checks on behalf of the services
type Guard struct {
	policy Policy
}

// NewGuard creates a guard for the given policy
func NewGuard(policy Policy) *Guard {
	if policy.OrderUpdate == "" {
		policy.OrderUpdate = OrderUpdateClientOrOrder
	}
	return &Guard{policy: policy}
}

// Policy returns the active policy
func (g *Guard) Policy() Policy {
	return g.policy
}

// CheckOwner fails with Forbidden unless seller is the caller
func (g *Guard) CheckOwner(caller Caller, seller primitive.ObjectID) error {
	if seller != caller.ID {
		return apperr.Forbidden("You don't have authorization to access this resource")
	}
	return nil
}

// ProductOwnershipEnforced reports whether product mutations need an owner
func (g *Guard) ProductOwnershipEnforced() bool {
	return g.policy.ProductOwnership
}

// CheckOrderUpdate applies the configured order update rule
func (g *Guard) CheckOrderUpdate(caller Caller, orderSeller, clientSeller primitive.ObjectID) error {
	ownsOrder := orderSeller == caller.ID
	ownsClient := clientSeller == caller.ID

	allowed := ownsOrder || ownsClient
	if g.policy.OrderUpdate == OrderUpdateClientAndOrder {
		allowed = ownsOrder && ownsClient
	}

	if !allowed {
		return apperr.Forbidden("You don't have authorization to update this order")
	}
	return nil
}
