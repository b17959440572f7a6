package main

import (
	"log"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// machineInfoList converts the catalog for the welcome message
func machineInfoList() []MachineInfo {
	list := make([]MachineInfo, 0, len(MachineCatalog))
	for _, m := range MachineCatalog {
		list = append(list, MachineInfo{
			ID:          m.ID,
			Name:        m.Name,
			Barrels:     len(m.Muzzles),
			Description: m.Description,
		})
	}
	return list
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	// QR code linking a second screen to a running arena
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		sid := r.URL.Query().Get("sid")
		if sid == "" || hub.sessions.GetSession(sid) == nil {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		link := "https://" + r.Host + "/?watch=" + url.QueryEscape(sid)
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// WebSocket endpoint: one connection = one arena
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		sess := hub.sessions.CreateSession()
		if sess == nil {
			conn.Close()
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		client.AttachSession(sess)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()

		client.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
			SessionID: sess.ID,
			Machines:  machineInfoList(),
		}})
	})

	return mux
}
