// Package api 組裝 HTTP 路由與全域中間件。
//
// 公開路由負責註冊與登入，其餘 /api 路由需要 JWT。
// /collab 路由提供協作房間的資料、檔案上傳與下載，/ws 則是房間事件的 WebSocket 入口。
package api
