package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicCartItemAdded     = "cart.item_added"
	TopicCartItemRemoved   = "cart.item_removed"
	TopicCartInputRejected = "cart.input_rejected"
	TopicCheckoutConfirmed = "checkout.confirmed"
	TopicCheckoutRejected  = "checkout.rejected"
	TopicContactSubmitted  = "contact.submitted"
	TopicContactInvalid    = "contact.invalid"
)

// DefaultTopics returns every topic the storefront emits.
func DefaultTopics() []string {
	return []string{
		TopicCartItemAdded,
		TopicCartItemRemoved,
		TopicCartInputRejected,
		TopicCheckoutConfirmed,
		TopicCheckoutRejected,
		TopicContactSubmitted,
		TopicContactInvalid,
	}
}
