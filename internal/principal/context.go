package principal

import "github.com/gin-gonic/gin"

const principalKey = "auth.principal"

// SetPrincipal records the authenticated caller on c for downstream
// handlers and middleware to read back via GetPrincipal.
func SetPrincipal(c *gin.Context, id string, credentialType CredentialType) {
	c.Set(principalKey, &Principal{ID: id, CredentialType: credentialType})
}

// GetPrincipal returns the request's principal, or nil if
// Authentication middleware hasn't run or didn't authenticate anyone.
func GetPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
