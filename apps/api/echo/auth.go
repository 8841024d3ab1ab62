package echoapi

import (
	"sort"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/masomo-resources/core"
)

const (
	contextTokenKey = "userToken"
	tokenAudience   = "Academia"

	RoleResourceManager = "resource:manager"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	IsAdmin bool     `json:"is_admin,omitempty"` // -> ADMIN PORTAL
	Roles   []string `json:"roles,omitempty"`
}

type authenticator struct {
	appName    string
	secretKey  []byte
	expiration time.Duration
	nowFunc    func() time.Time // mockable
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		appName:    conf.AppName,
		secretKey:  []byte(conf.SecretKey),
		expiration: conf.Server.JWTExpirationDelta,
		nowFunc:    time.Now,
	}
}

func (a *authenticator) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    a.secretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (a *authenticator) claims(subject string, isAdmin bool, roles []string) *Claims {
	now := a.nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   subject,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		IsAdmin: isAdmin,
		Roles:   roles,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", errTokenSigningFail
	}
	return ss, nil
}

// GenerateToken signs a token outside of a running Server (e.g. from the admin CLI).
func GenerateToken(conf *core.Config, subject string, isAdmin bool, roles ...string) (string, error) {
	a := newAuthenticator(conf)
	return a.generateToken(a.claims(subject, isAdmin, roles))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}
