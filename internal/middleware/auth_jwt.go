package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	ctxActorKey        = "actor"         // model.Actor
	CtxTokenVersionKey = "token_version" // int
)

// AccessClaims は認証アプリが発行するアクセストークンの中身。
// subは数値でも文字列でも受ける。
type AccessClaims struct {
	Sub          json.Number `json:"sub"`
	Role         model.Role  `json:"role"`
	TokenVersion int         `json:"token_version"`
	jwt.RegisteredClaims
}

var errInvalidClaims = errors.New("invalid claims")

func (c AccessClaims) actor() (model.Actor, error) {
	userID, err := c.Sub.Int64()
	if err != nil || userID <= 0 {
		return model.Actor{}, errInvalidClaims
	}
	if c.Role != model.RoleUser && c.Role != model.RoleAdmin {
		return model.Actor{}, errInvalidClaims
	}
	if c.TokenVersion < 0 {
		return model.Actor{}, errInvalidClaims
	}
	return model.Actor{UserID: userID, Role: c.Role}, nil
}

// HS256のBearerトークンを検証して、操作者をcontextに入れる。
// 発行はしない。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }
	methods := jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return unauthorized(c)
			}

			// 署名・exp/nbfはここで落ちる
			var claims AccessClaims
			if _, err := jwt.ParseWithClaims(raw, &claims, keyFunc, methods); err != nil {
				return unauthorized(c)
			}
			actor, err := claims.actor()
			if err != nil {
				return unauthorized(c)
			}

			c.Set(ctxActorKey, actor)
			c.Set(CtxTokenVersionKey, claims.TokenVersion)
			return next(c)
		}
	}
}

// AuthJWTを通ったリクエストの操作者
func ActorFromContext(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(ctxActorKey).(model.Actor)
	if !ok || a.UserID <= 0 {
		return model.Actor{}, false
	}
	return a, true
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}
