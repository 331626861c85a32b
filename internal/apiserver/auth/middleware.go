package auth

import (
	"log"
	"net/http"
	"strings"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/tips/free",
	"/api/v1/payments/details",
	"/health",
	"/metrics",
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware 创建 JWT 认证中间件
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：直接放行
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			// 注入 auth user 到 context
			user := &AuthUser{
				ID:    claims.Subject,
				Email: claims.Email,
				Role:  claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// AdminOnly 管理员专属路由中间件
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil || user.Role != UserRoleAdmin {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// UserRoleAdmin 管理员角色常量（避免 model 包循环引用）
const UserRoleAdmin = "admin"
