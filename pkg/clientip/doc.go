// Package clientip extracts the originating client's IP address from an
// *http.Request.
//
// Headers are examined in this order and the first valid address wins:
//
//  1. X-Forwarded-For   – first entry of the comma-separated list
//  2. X-Real-IP         – set by reverse proxies such as nginx
//  3. CF-Connecting-IP  – Cloudflare
//  4. True-Client-IP    – Akamai / Cloudflare Enterprise
//  5. RemoteAddr        – transport peer address
//
// When nothing usable is found GetIP returns Unknown ("unknown").
//
// These headers are client-controlled unless a trusted reverse proxy sets or
// strips them. Deploy behind such a proxy before using the result for
// allow-lists or rate limiting.
//
// # Usage
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		ip := clientip.FromRequest(r)
//		_ = ip
//	})
//	http.ListenAndServe(":8080", clientip.Middleware(mux))
//
// LoggerExtractor plugs the stored address into pkg/logger as "client_ip".
package clientip
