package httpserver

import "net/http"

// Routes aggregates handlers for HTTP server. Auth-protected entries are
// wrapped by the caller before being placed here.
type Routes struct {
	Login         http.Handler
	Me            http.Handler
	TuitionLookup http.Handler
	Initiate      http.Handler
	ResendOTP     http.Handler
	Confirm       http.Handler
	History       http.Handler
	Health        http.Handler
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Login != nil {
		mux.Handle("/api/auth/login", method(http.MethodPost, routes.Login))
	}
	if routes.Me != nil {
		mux.Handle("/api/auth/me", method(http.MethodGet, routes.Me))
	}
	if routes.TuitionLookup != nil {
		mux.Handle("/api/tuition/lookup", method(http.MethodGet, routes.TuitionLookup))
	}
	if routes.Initiate != nil {
		mux.Handle("/api/payment/initiate", method(http.MethodPost, routes.Initiate))
	}
	if routes.ResendOTP != nil {
		mux.Handle("/api/payment/resend-otp", method(http.MethodPost, routes.ResendOTP))
	}
	if routes.Confirm != nil {
		mux.Handle("/api/payment/confirm", method(http.MethodPost, routes.Confirm))
	}
	if routes.History != nil {
		mux.Handle("/api/payment/history", method(http.MethodGet, routes.History))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	}
}
