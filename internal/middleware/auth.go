package middleware

import (
	"net/http"
	"os"
	"strings"

	"taxtrack/internal/model"
	"taxtrack/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only. DO NOT use in production
	}
	return []byte(secret)
}

// RequireActor validates the JWT and checks that the caller's role is one of
// the allowed actor contexts. Tokens are issued by an external identity
// provider; this middleware only consumes them.
func RequireActor(allowed ...model.ActorContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})

		if err != nil || !token.Valid {
			msg := "Invalid token"
			if err != nil {
				msg += ": " + err.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, msg))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		roleClaim, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}
		actor := model.ActorContext(roleClaim)

		roleAllowed := false
		for _, a := range allowed {
			if actor == a {
				roleAllowed = true
				break
			}
		}
		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		sub, _ := claims["sub"].(string)
		employeeID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid employee id in token"))
			return
		}

		c.Set("employeeID", employeeID)
		c.Set("actorContext", actor)

		c.Next()
	}
}

// AnyActor admits all three pipeline roles.
func AnyActor() gin.HandlerFunc {
	return RequireActor(model.ActorInspector, model.ActorStatusManager, model.ActorFiler)
}

// Identity returns the employee id and actor context set by RequireActor.
func Identity(c *gin.Context) (uuid.UUID, model.ActorContext) {
	id, _ := c.Get("employeeID")
	actor, _ := c.Get("actorContext")
	employeeID, _ := id.(uuid.UUID)
	actorContext, _ := actor.(model.ActorContext)
	return employeeID, actorContext
}
