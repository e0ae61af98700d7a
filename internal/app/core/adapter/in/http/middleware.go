package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/pkg/auth"
)

const subjectKey = "subject"

// TokenVerifier 驗證 Bearer token
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// BearerToken 取出 "Bearer <token>" 中的 token
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SubjectFromIdentity 把 token 身分轉為存取政策的 Subject
func SubjectFromIdentity(identity auth.Identity) (domain.Subject, error) {
	role, err := domain.ParseRole(identity.Role)
	if err != nil {
		return domain.Subject{}, domain.ErrUnauthorized
	}
	return domain.Subject{ID: identity.ID, Role: role}, nil
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, domain.ErrUnauthorized)
			return
		}
		identity, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Debug("token rejected", zap.Error(err))
			AbortWithError(c, domain.ErrUnauthorized)
			return
		}
		subject, err := SubjectFromIdentity(identity)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !subjectFrom(c).IsAdmin() {
			AbortWithError(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

// subjectFrom 未經 authenticate 的路由回傳零值 Subject，存取政策一律拒絕
func subjectFrom(c *gin.Context) domain.Subject {
	v, ok := c.Get(subjectKey)
	if !ok {
		return domain.Subject{}
	}
	subject, _ := v.(domain.Subject)
	return subject
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if subject := subjectFrom(c); subject.ID > 0 {
			fields = append(fields, zap.Int64("subject_id", subject.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}
