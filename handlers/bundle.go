package handlers

// HandlerBundle groups the endpoint handlers behind one wiring point.
type HandlerBundle struct {
	Booking   *BookingHandler
	Dashboard *DashboardHandler
	Webhook   *PaymentWebhookHandler
}
