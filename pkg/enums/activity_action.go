package enums

// ActivityAction is the human-readable label written to the user activity log.
type ActivityAction string

const (
	ActivityRegistered      ActivityAction = "Registered"
	ActivityLoggedIn        ActivityAction = "Logged in"
	ActivityLoggedOut       ActivityAction = "Logged out"
	ActivityUpdatedProfile  ActivityAction = "Updated profile"
	ActivityAddedToCart     ActivityAction = "Added product to cart"
	ActivityUpdatedCart     ActivityAction = "Updated cart item"
	ActivityRemovedFromCart ActivityAction = "Removed product from cart"
	ActivityClearedCart     ActivityAction = "Cleared cart"
	ActivityPlacedOrder     ActivityAction = "Placed order"
	ActivityConfirmedOrder  ActivityAction = "Confirmed order"
)

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}
