package utils

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTResult carries the decoded payload of a token found in user input.
type JWTResult struct {
	JWT    bool
	Object map[string]any
}

var jwtParser = jwt.NewParser()

// TryDecodeAsJWT decodes the payload of a three segment token without
// verifying its signature. Anything malformed yields JWT false.
func TryDecodeAsJWT(value string) JWTResult {
	value = strings.TrimPrefix(value, "Bearer ")
	if strings.Count(value, ".") != 2 {
		return JWTResult{}
	}

	token, _, err := jwtParser.ParseUnverified(value, jwt.MapClaims{})
	if err != nil {
		return JWTResult{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return JWTResult{}
	}
	return JWTResult{JWT: true, Object: claims}
}
