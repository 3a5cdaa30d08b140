package models

type ExtractTextRequest struct {
	Image string `json:"image"` // Base64 encoded image
}

type CompareFacesRequest struct {
	IdImage     string `json:"idImage"`     // Base64 encoded ID image
	SelfieImage string `json:"selfieImage"` // Base64 encoded selfie image
}

type ValidateIdRequest struct {
	// Optional session bootstrap from /api/start-validation.
	SessionId string `json:"session_id,omitempty"`
	Nonce     string `json:"nonce,omitempty"`

	IdImage            string `json:"idImage"`     // Base64 encoded ID image
	SelfieImage        string `json:"selfieImage"` // Base64 encoded selfie image
	UserInputIdNumber  string `json:"userInputIdNumber"`
	UserInputFirstName string `json:"userInputFirstName"`
	UserInputLastName  string `json:"userInputLastName"`
	UserInputBirthday  string `json:"userInputBirthday,omitempty"`
	UserType           string `json:"userType"` // "student" or "professional"
}
