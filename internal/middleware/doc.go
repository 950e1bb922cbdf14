// Package middleware 提供 gin 的中間件。
//
// 包含 JWT 身份驗證、請求日誌、Prometheus 指標以及以 Redis 計數的限流。
package middleware
