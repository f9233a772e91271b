package schema

// ActivationChallenge is issued by the begin-activation contract. The user
// completes the challenge at ActivationURL by entering ActivationCode;
// CheckURL is an opaque server-issued handle that must be passed back
// verbatim on every poll, together with Email.
type ActivationChallenge struct {
	ActivationURL  string `json:"activation_url"`
	ActivationCode string `json:"activation_code"`
	CheckURL       string `json:"check_url"`
	Email          string `json:"email"`
}

// CheckActivationRequest is the poll payload of the check-activation
// contract. Both fields correlate the poll with a previously issued
// challenge; neither may be transformed by the caller.
type CheckActivationRequest struct {
	CheckURL string `json:"check_url"`
	Email    string `json:"email"`
}

// ActivationOutcome reports one poll result. Success true means the
// external activation completed; false or absent means keep polling.
// A populated Error carries an application-level failure message.
type ActivationOutcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ActivationURL is the page where the user enters the activation code.
const ActivationURL = "https://www.kobo.com/activate"

// ActivationStatusComplete is the terminal Status of the Kobo poll endpoint.
const ActivationStatusComplete = "Complete"

// ActivationPollState is the Kobo activation poll endpoint response.
type ActivationPollState struct {
	Status    string `json:"Status"`
	UserEmail string `json:"UserEmail"`
	UserId    string `json:"UserId"`
	UserKey   string `json:"UserKey"`
}

// Completed returns true once the user finished the web activation.
func (s *ActivationPollState) Completed() bool {
	return s.Status == ActivationStatusComplete
}
