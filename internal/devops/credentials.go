package devops

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

const (
	credentialSourceSeparatorConstant           = ":"
	environmentCredentialSourceTypeConstant     = "env"
	fileCredentialSourceTypeConstant            = "file"
	credentialSourceMissingMessageConstant      = "credential source must be provided"
	environmentNameMissingMessageConstant       = "environment variable name must be provided"
	credentialFilePathMissingMessageConstant    = "credential file path must be provided"
	environmentLookupNilMessageConstant         = "environment lookup function not configured"
	fileReaderNilMessageConstant                = "file reader function not configured"
	environmentCredentialMissingTemplate        = "environment variable %s is not set"
	credentialFileReadErrorTemplate             = "unable to read credential file %s: %w"
	credentialFileEmptyTemplate                 = "credential file %s is empty"
	unsupportedCredentialSourceTemplate         = "unsupported credential source type %q"
	personalAccessTokenEmptyMessageConstant     = "personal access token must not be empty"
	accessTokenEmptyMessageConstant             = "access token must not be empty"
	basicAuthorizationHeaderTemplateConstant    = "Basic %s"
	authorizationHeaderNameConstant             = "Authorization"
	basicCredentialUserSeparatorConstant        = ":"
	bearerTokenResolutionErrorTemplateConstant  = "unable to resolve bearer token: %w"
	credentialRequestNilMessageConstant         = "request must not be nil"
	credentialSourceFormatInvalidTemplateConst  = "credential source %q must use the <type>:<reference> form"
	credentialSourceReferenceEmptyMessageConst  = "credential source reference must not be empty"
	credentialAuthorizerNilRequestErrorConstant = "authorizer received nil request"
)

// CredentialSourceType enumerates the supported credential retrieval mechanisms.
type CredentialSourceType string

// Credential source type enumerations.
const (
	CredentialSourceTypeEnvironment CredentialSourceType = CredentialSourceType(environmentCredentialSourceTypeConstant)
	CredentialSourceTypeFile        CredentialSourceType = CredentialSourceType(fileCredentialSourceTypeConstant)
)

// CredentialSource specifies how to locate a secret value.
type CredentialSource struct {
	Type      CredentialSourceType
	Reference string
}

// ParseCredentialSource interprets textual source specifications such as
// "env:AZURE_DEVOPS_PAT" or "file:/run/secrets/pat".
func ParseCredentialSource(specification string) (CredentialSource, error) {
	trimmedSpecification := strings.TrimSpace(specification)
	if len(trimmedSpecification) == 0 {
		return CredentialSource{}, errors.New(credentialSourceMissingMessageConstant)
	}

	separatorIndex := strings.Index(trimmedSpecification, credentialSourceSeparatorConstant)
	if separatorIndex <= 0 {
		return CredentialSource{}, fmt.Errorf(credentialSourceFormatInvalidTemplateConst, specification)
	}

	sourceType := CredentialSourceType(strings.ToLower(trimmedSpecification[:separatorIndex]))
	sourceReference := strings.TrimSpace(trimmedSpecification[separatorIndex+1:])
	if len(sourceReference) == 0 {
		return CredentialSource{}, errors.New(credentialSourceReferenceEmptyMessageConst)
	}

	switch sourceType {
	case CredentialSourceTypeEnvironment, CredentialSourceTypeFile:
		return CredentialSource{Type: sourceType, Reference: sourceReference}, nil
	default:
		return CredentialSource{}, fmt.Errorf(unsupportedCredentialSourceTemplate, string(sourceType))
	}
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// CredentialResolver retrieves secret values from configured sources.
type CredentialResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
}

// NewCredentialResolver creates a resolver with optional dependency overrides.
func NewCredentialResolver(environmentLookup EnvironmentLookup, fileReader FileReader) *CredentialResolver {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}

	resolvedFileReader := fileReader
	if resolvedFileReader == nil {
		resolvedFileReader = os.ReadFile
	}

	return &CredentialResolver{
		environmentLookup: resolvedEnvironmentLookup,
		fileReader:        resolvedFileReader,
	}
}

// ResolveSecret returns the secret value referenced by the provided source.
func (resolver *CredentialResolver) ResolveSecret(resolutionContext context.Context, source CredentialSource) (string, error) {
	switch source.Type {
	case CredentialSourceTypeEnvironment:
		if resolver.environmentLookup == nil {
			return "", errors.New(environmentLookupNilMessageConstant)
		}
		if len(strings.TrimSpace(source.Reference)) == 0 {
			return "", errors.New(environmentNameMissingMessageConstant)
		}
		secretValue, secretAvailable := resolver.environmentLookup(source.Reference)
		if !secretAvailable || len(strings.TrimSpace(secretValue)) == 0 {
			return "", fmt.Errorf(environmentCredentialMissingTemplate, source.Reference)
		}
		return strings.TrimSpace(secretValue), nil
	case CredentialSourceTypeFile:
		if resolver.fileReader == nil {
			return "", errors.New(fileReaderNilMessageConstant)
		}
		if len(strings.TrimSpace(source.Reference)) == 0 {
			return "", errors.New(credentialFilePathMissingMessageConstant)
		}
		secretContent, readError := resolver.fileReader(source.Reference)
		if readError != nil {
			return "", fmt.Errorf(credentialFileReadErrorTemplate, source.Reference, readError)
		}
		trimmedSecret := strings.TrimSpace(string(secretContent))
		if len(trimmedSecret) == 0 {
			return "", fmt.Errorf(credentialFileEmptyTemplate, source.Reference)
		}
		return trimmedSecret, nil
	default:
		return "", fmt.Errorf(unsupportedCredentialSourceTemplate, string(source.Type))
	}
}

// RequestAuthorizer attaches service credentials to outgoing API requests.
type RequestAuthorizer interface {
	Authorize(request *http.Request) error
}

// PersonalAccessTokenAuthorizer encodes a PAT as HTTP basic credentials with
// an empty user name, matching the service's PAT transport contract.
type PersonalAccessTokenAuthorizer struct {
	encodedCredentials string
}

// NewPersonalAccessTokenAuthorizer validates and encodes the provided PAT.
func NewPersonalAccessTokenAuthorizer(personalAccessToken string) (*PersonalAccessTokenAuthorizer, error) {
	trimmedToken := strings.TrimSpace(personalAccessToken)
	if len(trimmedToken) == 0 {
		return nil, errors.New(personalAccessTokenEmptyMessageConstant)
	}

	rawCredentials := basicCredentialUserSeparatorConstant + trimmedToken
	encodedCredentials := base64.StdEncoding.EncodeToString([]byte(rawCredentials))
	return &PersonalAccessTokenAuthorizer{encodedCredentials: encodedCredentials}, nil
}

// Authorize sets the basic authorization header on the request.
func (authorizer *PersonalAccessTokenAuthorizer) Authorize(request *http.Request) error {
	if request == nil {
		return errors.New(credentialAuthorizerNilRequestErrorConstant)
	}
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(basicAuthorizationHeaderTemplateConstant, authorizer.encodedCredentials))
	return nil
}

// BearerTokenAuthorizer attaches OAuth bearer credentials resolved from an
// oauth2 token source, covering access tokens issued by identity providers.
type BearerTokenAuthorizer struct {
	tokenSource oauth2.TokenSource
}

// NewBearerTokenAuthorizer wraps a static access token in an oauth2 source.
func NewBearerTokenAuthorizer(accessToken string) (*BearerTokenAuthorizer, error) {
	trimmedToken := strings.TrimSpace(accessToken)
	if len(trimmedToken) == 0 {
		return nil, errors.New(accessTokenEmptyMessageConstant)
	}

	staticSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
	return &BearerTokenAuthorizer{tokenSource: staticSource}, nil
}

// NewBearerTokenAuthorizerFromSource builds an authorizer over an arbitrary
// token source, allowing refreshable credentials to be injected.
func NewBearerTokenAuthorizerFromSource(tokenSource oauth2.TokenSource) (*BearerTokenAuthorizer, error) {
	if tokenSource == nil {
		return nil, errors.New(accessTokenEmptyMessageConstant)
	}
	return &BearerTokenAuthorizer{tokenSource: tokenSource}, nil
}

// Authorize resolves the current token and sets the bearer header.
func (authorizer *BearerTokenAuthorizer) Authorize(request *http.Request) error {
	if request == nil {
		return errors.New(credentialAuthorizerNilRequestErrorConstant)
	}

	currentToken, tokenError := authorizer.tokenSource.Token()
	if tokenError != nil {
		return fmt.Errorf(bearerTokenResolutionErrorTemplateConstant, tokenError)
	}

	currentToken.SetAuthHeader(request)
	return nil
}
