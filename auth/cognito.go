package auth

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/pkg/errors"
)

// CognitoProvider implements Provider on AWS Cognito user pools. The client
// is thread safe and shared across requests.
type CognitoProvider struct {
	client   *cognitoidentityprovider.Client
	clientId string
}

// NewCognitoProvider creates a provider with aws config located in path
// ~/.aws/config, and return error on error.
func NewCognitoProvider() (*CognitoProvider, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, err
	}
	return &CognitoProvider{
		client:   cognitoidentityprovider.NewFromConfig(cfg),
		clientId: os.Getenv("COGNITO_CLIENT_ID"),
	}, nil
}

func (p *CognitoProvider) SignUp(ctx context.Context, email string, password string) (string, error) {
	out, err := p.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: &p.clientId,
		Username: &email,
		Password: &password,
	})
	if err != nil {
		return "", errors.Wrap(err, "fail to sign up")
	}
	return *out.UserSub, nil
}

func (p *CognitoProvider) SignIn(ctx context.Context, email string, password string) (string, string, error) {
	out, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: &p.clientId,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.AccessToken == nil {
		return "", "", ErrInvalidCredentials
	}
	token := *out.AuthenticationResult.AccessToken

	uid, err := p.UserFromToken(ctx, token)
	if err != nil {
		return "", "", err
	}
	return token, uid, nil
}

func (p *CognitoProvider) SignOut(ctx context.Context, token string) error {
	_, err := p.client.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: &token,
	})
	return errors.Wrap(err, "fail to sign out")
}

func (p *CognitoProvider) ResetPassword(ctx context.Context, email string) error {
	_, err := p.client.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: &p.clientId,
		Username: &email,
	})
	return errors.Wrap(err, "fail to start password reset")
}

func (p *CognitoProvider) UserFromToken(ctx context.Context, token string) (string, error) {
	user, err := p.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{AccessToken: &token})
	if err != nil {
		return "", ErrInvalidToken
	}
	return *user.Username, nil
}

func (p *CognitoProvider) DeleteAccount(ctx context.Context, token string) error {
	_, err := p.client.DeleteUser(ctx, &cognitoidentityprovider.DeleteUserInput{
		AccessToken: &token,
	})
	return errors.Wrap(err, "fail to delete account")
}
