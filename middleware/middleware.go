package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chefbazar/auth"
	"chefbazar/globals"
	"chefbazar/policy"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Middleware func(httprouter.Handle) httprouter.Handle

// Chain applies mws so that the first one runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// Authenticate verifies the bearer token and stores the caller's email in
// the request context.
func Authenticate(verifier auth.Verifier) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token, ok := bearerToken(r)
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, utils.ErrUnauthorized.Error())
				return
			}

			email, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logrus.WithError(err).WithField("path", r.URL.Path).Debug("token rejected")
				utils.RespondWithError(w, http.StatusUnauthorized, utils.ErrUnauthorized.Error())
				return
			}

			ctx := context.WithValue(r.Context(), globals.EmailKey, email)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// RequireAdmin lets the request through only when the authenticated caller's
// user record has the admin role. It must run after Authenticate.
func RequireAdmin(users policy.UserFinder) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			email := utils.GetEmailFromRequest(r)
			if email == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, utils.ErrUnauthorized.Error())
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			caller, err := policy.LoadCaller(ctx, users, email)
			if err != nil {
				utils.RespondWithErr(w, err, "Failed to load user")
				return
			}
			if err := policy.Check(caller, policy.AdminArea); err != nil {
				utils.RespondWithErr(w, err, "Forbidden Access!")
				return
			}
			next(w, r, ps)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
