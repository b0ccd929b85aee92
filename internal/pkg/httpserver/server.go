package httpserver

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const shutdownGrace = 5 * time.Second

type Server struct {
	addr string
	App  *fiber.App
}

func New(addr string, cfg fiber.Config) *Server {
	return &Server{
		addr: addr,
		App:  fiber.New(cfg),
	}
}

func (s *Server) Start() error {
	return s.App.Listen(s.addr)
}

func (s *Server) Stop() {
	_ = s.App.ShutdownWithTimeout(shutdownGrace)
}
