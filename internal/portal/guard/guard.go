// Package guard decides, for every navigation, whether the current
// authentication state may render a page or must be redirected.
package guard

import (
	"docbridge/internal/models"
	"docbridge/internal/portal/auth"
)

const LoginPath = "/login"

// Decision is exactly one of render or redirect.
type Decision struct {
	Render     bool
	RedirectTo string
}

func render() Decision {
	return Decision{Render: true}
}

func redirect(path string) Decision {
	return Decision{RedirectTo: path}
}

// Decide applies the access rules:
//
//   - anonymous visitors go to the login page, whatever they asked for;
//   - authenticated users on a page for the other role go to their own
//     dashboard, never back to login; they are logged in, just not
//     authorized here;
//   - otherwise the page renders.
//
// requiredRole may be empty for pages any authenticated user may see.
// Verification status deliberately plays no part: an unverified user still
// reaches their dashboard.
func Decide(state auth.State, requiredRole models.UserType) Decision {
	if !state.Authenticated || state.User == nil {
		return redirect(LoginPath)
	}

	if requiredRole != "" && state.User.UserType != requiredRole {
		return redirect(state.User.UserType.DashboardPath())
	}

	return render()
}
