package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	UserMetadata         map[string]interface{} `json:"user_metadata"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	SessionID            string                 `json:"session_id"`
	IsAnonymous          bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// Principal converts verified claims into the principal the services operate
// on. First/last name and the cached root folder id come from user_metadata.
func (c *SupabaseClaims) Principal() *Principal {
	p := &Principal{ID: c.Subject}
	if v, ok := c.UserMetadata["first_name"].(string); ok {
		p.FirstName = v
	}
	if v, ok := c.UserMetadata["last_name"].(string); ok {
		p.LastName = v
	}
	if v, ok := c.UserMetadata["root_folder_id"].(string); ok {
		p.RootFolderID = v
	}
	return p
}

// Principal is the authenticated identity on whose behalf operations run.
// RootFolderID is a cache slot in the identity provider's user metadata;
// empty until root-folder provisioning fills it in.
type Principal struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	RootFolderID string `json:"root_folder_id,omitempty"`
}

// FullName joins the name parts, falling back to the principal id when the
// identity provider supplied no name.
func (p *Principal) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	default:
		return p.ID
	}
}
