package schema

// DeviceAuthRequest is the /v1/auth/device payload. UserKey is empty for
// the initial anonymous device authentication and set once the web
// activation returned one.
type DeviceAuthRequest struct {
	AffiliateName string `json:"AffiliateName"`
	AppVersion    string `json:"AppVersion"`
	ClientKey     string `json:"ClientKey"`
	DeviceId      string `json:"DeviceId"`
	PlatformId    string `json:"PlatformId"`
	SerialNumber  string `json:"SerialNumber"`
	UserKey       string `json:"UserKey,omitempty"`
}

// RefreshAuthRequest is the /v1/auth/refresh payload.
type RefreshAuthRequest struct {
	AppVersion   string `json:"AppVersion"`
	ClientKey    string `json:"ClientKey"`
	PlatformId   string `json:"PlatformId"`
	RefreshToken string `json:"RefreshToken"`
}

// AuthResponse is shared by device authentication and token refresh.
type AuthResponse struct {
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
	TokenType    string `json:"TokenType"`
	TrackingId   string `json:"TrackingId,omitempty"`
	UserKey      string `json:"UserKey,omitempty"`
}

// InitializationResponse maps resource names to store API endpoint URLs.
type InitializationResponse struct {
	Resources map[string]string `json:"Resources"`
}
