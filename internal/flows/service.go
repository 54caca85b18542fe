package flows

import (
	"context"
	"time"
)

// Service exposes the flows behind a single value so the root engine holds
// one field instead of five dependency structs.
type Service struct {
	deps Deps
}

func New(deps Deps) *Service {
	return &Service{deps: deps}
}

func (s *Service) Login(ctx context.Context, email, password string) LoginResult {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s *Service) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	return RunLogout(ctx, userID, accessToken, refreshToken, s.deps.Logout)
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return RunLogoutAll(ctx, userID, s.deps.Logout)
}

func (s *Service) Refresh(ctx context.Context, userID, oldRefresh, oldAccess string) RefreshResult {
	return RunRefresh(ctx, userID, oldRefresh, oldAccess, s.deps.Refresh)
}

func (s *Service) IssueEmailOTP(ctx context.Context, userID string) OTPResult {
	return RunIssueEmailOTP(ctx, userID, s.deps.OTP)
}

func (s *Service) VerifyEmailOTP(ctx context.Context, verificationID, otp string) OTPResult {
	return RunVerifyEmailOTP(ctx, verificationID, otp, s.deps.OTP)
}

func (s *Service) EnrollTOTP(ctx context.Context, userID, email string) TOTPResult {
	return RunEnrollTOTP(ctx, userID, email, s.deps.TOTP)
}

func (s *Service) VerifyTOTP(ctx context.Context, userID, code string) (bool, TOTPFailureKind, error) {
	return RunVerifyTOTP(ctx, userID, code, s.deps.TOTP)
}

// SleepCtx waits d or until ctx is done, whichever comes first. Used as the
// default RefreshDeps.Sleep.
func SleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
