package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zonefall/server/internal/loot"
	"zonefall/server/internal/token"
)

func main() {
	cfg := LoadConfig()

	secret := cfg.TokenSecret
	if secret == "" {
		// An ephemeral secret invalidates reconnect tokens across restarts,
		// which is acceptable: rooms do not survive a restart either.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("failed to generate token secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
	}
	tokens := token.NewManager(secret, cfg.TokenTTL)

	table := loot.DefaultTable()
	if cfg.LootTablePath != "" {
		loaded, err := loot.LoadFile(cfg.LootTablePath)
		if err != nil {
			log.Fatalf("failed to load loot table: %v", err)
		}
		table = loaded
	}

	registry := NewRegistry(cfg, table, tokens)
	stop := make(chan struct{})
	defer close(stop)
	go registry.RunSweep(stop)
	go registry.RunLiveness(stop)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"serverTime": time.Now().UnixMilli(),
			"tickRate":   cfg.TickRate,
		})
	})

	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		cl := newClient(conn)
		go cl.writePump()
		sess := newSession(registry, tokens, cl)
		go sess.run()
	})

	log.Printf("match server listening on %s (tick rate %d)", cfg.Addr, cfg.TickRate)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
