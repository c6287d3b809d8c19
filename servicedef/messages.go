package servicedef

// LoginParams is the JSON body of POST /login.
type LoginParams struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// MessageResponse is the body of every other auth response, successful or not.
type MessageResponse struct {
	Msg string `json:"msg"`
}
