package handlers

import "servicehub/middleware"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Auth     *AuthHandler
	Services *ServiceHandler
	Workers  *WorkerHandler
	Bookings *BookingHandler
	SPA      *SPAHandler
}

// NewHandlerBundle builds every API handler. The SPA handler needs the dist
// directory and is attached separately.
func NewHandlerBundle(cookies middleware.CookieOptions, spa *SPAHandler) *HandlerBundle {
	return &HandlerBundle{
		Auth:     NewAuthHandler(cookies),
		Services: NewServiceHandler(),
		Workers:  NewWorkerHandler(),
		Bookings: NewBookingHandler(),
		SPA:      spa,
	}
}
