package flows

// Deps bundles every flow's dependency set. The root package builds one of
// these during engine construction and hands it to New.
type Deps struct {
	Login   LoginDeps
	Logout  LogoutDeps
	Refresh RefreshDeps
	OTP     OTPDeps
	TOTP    TOTPDeps
}
