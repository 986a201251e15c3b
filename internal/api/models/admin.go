package models

// LoginRequest is the body of POST /v1/admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned after a successful admin login.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// FeatureFlag is a flag as exposed to admins.
type FeatureFlag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt *Timestamp  `json:"updatedAt,omitempty"`
}

// FeatureFlagsUpdateRequest sets one or more flags.
type FeatureFlagsUpdateRequest struct {
	Flags map[string]interface{} `json:"flags"`
}
