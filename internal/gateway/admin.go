package gateway

import (
	"net/http"
	"strings"

	"github.com/aryavratstudios/edgeguard/internal/access"
	"github.com/aryavratstudios/edgeguard/internal/identity"
)

// AdminGate protects the privileged route tree. The allow-list and role
// conjunction is re-evaluated on every request under the prefix; nothing is
// cached. Failures redirect instead of erroring: anonymous callers go to the
// login surface, everyone else back to the default authenticated surface.
// onDenied receives the deny decision so the caller can log and count it.
func AdminGate(
	prefix string,
	gate *access.Gate,
	loginPath, homePath string,
	onDenied func(err error),
) Middleware {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !underPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := gate.RequireAdmin(r.Context()); err != nil {
				if onDenied != nil {
					onDenied(err)
				}
				target := homePath
				if _, ok := identity.FromContext(r.Context()); !ok {
					target = loginPath
				}
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func underPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
