/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

// Access is the outcome of the premium gate.
type Access bool

const (
	Denied  Access = false
	Allowed Access = true
)

func (a Access) String() string {
	if a {
		return "allowed"
	}

	return "denied"
}

// CheckAccess gates medium and hard prompts behind premium.
// Entitlement itself is not verified here.
func CheckAccess(level Level, isPremium bool) Access {
	if level == Easy || isPremium {
		return Allowed
	}

	return Denied
}
