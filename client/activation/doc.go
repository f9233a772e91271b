// Package activation implements the client-side activation controller: a
// sequential state machine that drives the two-phase device-activation
// workflow against a kobodl backend.
//
// The controller moves through
//
//	Idle → Submitting → AwaitingActivation → Polling → Complete | Failed
//
// Begin submits the account identifier to the begin-activation contract
// and yields an ActivationChallenge; Wait polls the check-activation
// contract with the challenge until the external activation completes, a
// transport failure occurs, the context is cancelled, or the attempt cap
// is reached. Poll calls are strictly sequential; at most one request is
// in flight at any time.
//
// Example:
//
//	ctrl := activation.New("http://localhost:5000/user", "http://localhost:5000/user/check-activation")
//	challenge, err := ctrl.Begin(ctx, "user@example.com")
//	if err == nil {
//		fmt.Printf("open %v and enter %v\n", challenge.ActivationURL, challenge.ActivationCode)
//		err = ctrl.Wait(ctx, challenge)
//	}
package activation
