package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mediahub/domain/dto"
	"mediahub/domain/model"
	"mediahub/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Auth verifies the HS256 bearer token and stores its subject as user_id.
// Browser redirects cannot carry headers, so ?token= is accepted too.
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		raw := bearer(ctx.Request.Header.Get("Authorization"))
		if raw == "" {
			raw = ctx.Query("token")
		}
		if raw == "" || secretKey == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		userClaims, token, err := getClaim(raw, secretKey)
		if err != nil || token == nil || !token.Valid {
			res.ResponseMessage = reason(err)
			logger.GetLogger().WithField("path", ctx.FullPath()).WithField("reason", res.ResponseMessage).Debug("Rejected token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		userID := userClaims.Subject
		if userID == "" {
			userID = userClaims.Issuer
		}
		if userID == "" {
			res.ResponseMessage = "token has no subject"
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		ctx.Set("user_id", userID)
		ctx.Next()
	}
}

func bearer(authorization string) string {
	const prefix = "Bearer "
	if len(authorization) <= len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}

func reason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "That's not even a token"
		} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			// Token is either expired or not active yet
			return "Timing is everything"
		}
		return fmt.Sprintf("Couldn't handle this token: %v", err)
	}
	return model.ErrInvalidToken.Error()
}

func getClaim(raw, secretKey string) (model.UserClaims, *jwt.Token, error) {
	var userClaims model.UserClaims
	token, err := jwt.ParseWithClaims(
		raw,
		&userClaims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
	)
	return userClaims, token, err
}
