package http

import (
	"net/http"
	"time"
)

// Session cookies are a client convenience only: both are readable by the
// browser and neither is trusted server-side. Every protected action
// revalidates the email against the store instead of the cookie.
const (
	loggedInCookie  = "loggedIn"
	userEmailCookie = "userEmail"
)

func setSessionCookies(w http.ResponseWriter, email string, ttl time.Duration) {
	expires := time.Now().Add(ttl)

	http.SetCookie(w, &http.Cookie{
		Name:     loggedInCookie,
		Value:    "true",
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     userEmailCookie,
		Value:    email,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{loggedInCookie, userEmailCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			Expires: time.Unix(0, 0),
			MaxAge:  -1,
		})
	}
}
