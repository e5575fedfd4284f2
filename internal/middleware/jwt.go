package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cedra_shipping/internal/logger"
)

// Clés posées dans le contexte Gin après authentification
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// AuthRequired valide le jeton Bearer HMAC et place les claims dans le contexte.
// L'émission des jetons est faite ailleurs. Sans clé, toute requête est refusée.
func AuthRequired(secret []byte, log *logger.Logger) gin.HandlerFunc {
	if len(secret) == 0 {
		log.Error("❌ JWT_SECRET vide : routes authentifiées fermées")
	}
	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentification non configurée"})
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("❌ Pas de header Authorization", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("❌ Format Authorization invalide", "parts", len(parts))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			return
		}

		// exp est vérifié par le parser
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Info("❌ Jeton refusé", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			return
		}
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			log.Info("❌ user_id manquant dans les claims")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id manquant"})
			return
		}

		c.Set(CtxUserID, userID)
		if email, ok := claims["email"].(string); ok {
			c.Set(CtxEmail, email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(CtxRole, role)
		}
		c.Next()
	}
}
