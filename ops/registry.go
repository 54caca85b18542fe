package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	authcore "github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/jwt"
)

var (
	// ErrUnknownOperation is an exported constant or variable used by the authentication engine.
	ErrUnknownOperation = errors.New("ops: unknown operation")
	// ErrInvalidInput is an exported constant or variable used by the authentication engine.
	ErrInvalidInput = errors.New("ops: invalid input")
)

// Operation defines a public type used by authcore APIs.
//
// Operation instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Operation struct {
	Name         string
	RequiresAuth bool
	Handle       func(ctx context.Context, claims *jwt.AccessClaims, input json.RawMessage) (any, error)
}

// Registry defines a public type used by authcore APIs.
//
// Registry instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Registry struct {
	engine     *authcore.Engine
	operations map[string]Operation
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshInput struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
}

type logoutInput struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
	All          bool   `json:"all"`
}

type verifyEmailOTPInput struct {
	VerificationID string `json:"verificationId"`
	OTP            string `json:"otp"`
}

type verifyTOTPInput struct {
	Code string `json:"code"`
}

type statusResult struct {
	Success bool `json:"success"`
}

// NewRegistry describes the newregistry operation and its observable behavior.
//
// NewRegistry may return an error when input validation, dependency calls, or security checks fail.
// NewRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRegistry(engine *authcore.Engine) (*Registry, error) {
	if engine == nil {
		return nil, authcore.ErrEngineNotReady
	}

	r := &Registry{engine: engine}
	table := []Operation{
		{Name: "login", Handle: r.login},
		{Name: "refreshToken", Handle: r.refreshToken},
		// Logout is deliberately auth-free: the tokens in the payload are
		// the credential, and a client whose access token already expired
		// must still be able to revoke its refresh token.
		{Name: "logout", Handle: r.logout},
		{Name: "issueEmailOtp", RequiresAuth: true, Handle: r.issueEmailOTP},
		{Name: "verifyEmailOtp", Handle: r.verifyEmailOTP},
		{Name: "enrollTotp", RequiresAuth: true, Handle: r.enrollTOTP},
		{Name: "verifyTotp", RequiresAuth: true, Handle: r.verifyTOTP},
	}

	r.operations = make(map[string]Operation, len(table))
	for _, op := range table {
		r.operations[op.Name] = op
	}
	return r, nil
}

// Operations returns the registered operation names in no particular order.
func (r *Registry) Operations() []string {
	names := make([]string, 0, len(r.operations))
	for name := range r.operations {
		names = append(names, name)
	}
	return names
}

// Invoke describes the invoke operation and its observable behavior.
//
// Invoke dispatches name with input. For operations that require
// authentication, bearerToken is validated first and the resulting claims
// are passed to the handler.
// Invoke may return an error when input validation, dependency calls, or security checks fail.
// Invoke does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) Invoke(ctx context.Context, name, bearerToken string, input json.RawMessage) (any, error) {
	if r == nil || r.engine == nil {
		return nil, authcore.ErrEngineNotReady
	}

	op, ok := r.operations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	var claims *jwt.AccessClaims
	if op.RequiresAuth {
		var err error
		claims, err = r.engine.ValidateAccess(ctx, bearerToken)
		if err != nil {
			return nil, err
		}
	}

	return op.Handle(ctx, claims, input)
}

// HTTPStatus maps err onto the status a transport adapter should return.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return authcore.Kind(err).HTTPStatus()
	}
}

func (r *Registry) login(ctx context.Context, _ *jwt.AccessClaims, input json.RawMessage) (any, error) {
	var in loginInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	return r.engine.Login(ctx, in.Email, in.Password)
}

func (r *Registry) refreshToken(ctx context.Context, _ *jwt.AccessClaims, input json.RawMessage) (any, error) {
	var in refreshInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.UserID == "" || in.RefreshToken == "" {
		return nil, fmt.Errorf("%w: userId and refreshToken are required", ErrInvalidInput)
	}

	return r.engine.Refresh(ctx, in.UserID, in.RefreshToken, in.AccessToken)
}

func (r *Registry) logout(ctx context.Context, _ *jwt.AccessClaims, input json.RawMessage) (any, error) {
	var in logoutInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	if in.All {
		if err := r.engine.LogoutAll(ctx, in.UserID); err != nil {
			return nil, err
		}
		return statusResult{Success: true}, nil
	}

	if err := r.engine.Logout(ctx, in.UserID, in.AccessToken, in.RefreshToken); err != nil {
		return nil, err
	}
	return statusResult{Success: true}, nil
}

func (r *Registry) issueEmailOTP(ctx context.Context, claims *jwt.AccessClaims, _ json.RawMessage) (any, error) {
	return r.engine.RequestEmailOTP(ctx, claims.UserID)
}

func (r *Registry) verifyEmailOTP(ctx context.Context, _ *jwt.AccessClaims, input json.RawMessage) (any, error) {
	var in verifyEmailOTPInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.VerificationID == "" || in.OTP == "" {
		return nil, fmt.Errorf("%w: verificationId and otp are required", ErrInvalidInput)
	}

	if err := r.engine.VerifyEmailOTP(ctx, in.VerificationID, in.OTP); err != nil {
		return nil, err
	}
	return statusResult{Success: true}, nil
}

func (r *Registry) enrollTOTP(ctx context.Context, claims *jwt.AccessClaims, _ json.RawMessage) (any, error) {
	return r.engine.EnrollTOTP(ctx, claims.UserID, claims.Email)
}

func (r *Registry) verifyTOTP(ctx context.Context, claims *jwt.AccessClaims, input json.RawMessage) (any, error) {
	var in verifyTOTPInput
	if err := decodeInput(input, &in); err != nil {
		return nil, err
	}
	if in.Code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	ok, err := r.engine.VerifyTOTP(ctx, claims.UserID, in.Code)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

func decodeInput(input json.RawMessage, out any) error {
	if len(input) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	dec := json.NewDecoder(strings.NewReader(string(input)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
