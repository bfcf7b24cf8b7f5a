// Package forms turns one credential submission into a credential operation
// and maps its outcome to what the visitor sees.
package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
)

const (
	DashboardPath = "/dashboard"
	SignInPath    = "/sign-in"
)

// User-facing failure messages. Provider detail never reaches the visitor.
const (
	MsgSignInFailed     = "Failed to sign in"
	MsgDuplicateAccount = "An account with this email already exists. Please sign in instead."
	MsgSignUpFailed     = "Failed to create an account. Please try again."
)

// Authenticator is the credential half of a session store.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (*domain.Identity, error)
}

// Outcome is the visible state of a form after one submission. Exactly one
// of Error and Redirect is set.
type Outcome struct {
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
	// SignInLink offers a link to the sign-in page next to Error.
	SignInLink bool   `json:"sign_in_link,omitempty"`
	Redirect   string `json:"redirect,omitempty"`
}

// Failed reports whether the submission was rejected.
func (o Outcome) Failed() bool { return o.Error != "" }

var validate = validator.New()

type form struct {
	auth  Authenticator
	log   zerolog.Logger
	state Outcome
}

// Error returns the message from the last submission, or "".
func (f *form) Error() string { return f.state.Error }

// Outcome returns the state left by the last submission.
func (f *form) Outcome() Outcome { return f.state }

// begin clears the previous result and validates the input.
func (f *form) begin(in domain.Credentials) error {
	f.state = Outcome{Email: strings.TrimSpace(in.Email)}
	in.Email = f.state.Email
	return validate.Struct(in)
}

// SignInForm backs the sign-in page.
type SignInForm struct{ form }

func NewSignInForm(auth Authenticator, log zerolog.Logger) *SignInForm {
	return &SignInForm{form{auth: auth, log: log}}
}

// Submit signs in with in. There is no retry; the visitor resubmits.
func (f *SignInForm) Submit(ctx context.Context, in domain.Credentials) Outcome {
	if err := f.begin(in); err != nil {
		f.state.Error = MsgSignInFailed
		return f.state
	}
	if _, err := f.auth.SignIn(ctx, f.state.Email, in.Password); err != nil {
		f.log.Info().Err(err).Msg("sign in rejected")
		f.state.Error = MsgSignInFailed
		return f.state
	}
	f.state.Redirect = DashboardPath
	return f.state
}

// SignUpForm backs the sign-up page.
type SignUpForm struct{ form }

func NewSignUpForm(auth Authenticator, log zerolog.Logger) *SignUpForm {
	return &SignUpForm{form{auth: auth, log: log}}
}

// Submit creates an account with in. A duplicate email gets a pointer to
// the sign-in page; every other failure gets the generic retry message.
func (f *SignUpForm) Submit(ctx context.Context, in domain.Credentials) Outcome {
	if err := f.begin(in); err != nil {
		f.state.Error = MsgSignUpFailed
		return f.state
	}
	if _, err := f.auth.SignUp(ctx, f.state.Email, in.Password); err != nil {
		f.log.Info().Err(err).Msg("sign up rejected")
		if errors.Is(err, domain.ErrDuplicateAccount) {
			f.state.Error = MsgDuplicateAccount
			f.state.SignInLink = true
			return f.state
		}
		f.state.Error = MsgSignUpFailed
		return f.state
	}
	f.state.Redirect = DashboardPath
	return f.state
}
