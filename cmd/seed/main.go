package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"spacerental/internal/config"
	"spacerental/internal/database"
	"spacerental/internal/domain"
	jwtsvc "spacerental/internal/pkg/jwt"
	"spacerental/internal/pkg/logger"
	"spacerental/internal/pkg/validator"
	"spacerental/internal/repository"
)

// roomNamespace keeps seeded room IDs stable across runs, so reseeding updates
// rooms in place instead of orphaning existing bookings.
var roomNamespace = uuid.MustParse("6f1c7a52-3c1e-4f43-9a53-0f7f1d2b7e10")

func roomID(name string) string {
	return "room-" + uuid.NewSHA1(roomNamespace, []byte(name)).String()
}

var rooms = []domain.Room{
	{Name: "Arcade", Category: domain.RoomGaming, Capacity: 6, HourlyRate: 15, MinHours: 1, MaxHours: 6,
		Description: "Consoles, racing seats and a projector"},
	{Name: "VR Lab", Category: domain.RoomGaming, Capacity: 4, HourlyRate: 25, MinHours: 1, MaxHours: 4,
		Description: "Two tracked VR stations"},
	{Name: "Quiet Room", Category: domain.RoomThinking, Capacity: 2, HourlyRate: 8, MinHours: 1, MaxHours: 8},
	{Name: "Whiteboard Den", Category: domain.RoomThinking, Capacity: 6, HourlyRate: 12, MinHours: 2, MaxHours: 8},
	{Name: "Open Desk", Category: domain.RoomWorking, Capacity: 1, HourlyRate: 5, MinHours: 1},
	{Name: "Meeting Room", Category: domain.RoomWorking, Capacity: 10, HourlyRate: 20, MinHours: 1, MaxHours: 10},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, logg)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	ctx := context.Background()
	roomRepo := repository.NewRoomRepository(db)

	log.Println("Seeding rooms...")
	for i := range rooms {
		room := rooms[i]
		room.ID = roomID(room.Name)
		room.Status = domain.RoomAvailable

		if errs := validator.Validate(room); errs != nil {
			log.Fatalf("room %q invalid: %v", room.Name, errs)
		}
		if err := roomRepo.Upsert(ctx, &room); err != nil {
			log.Fatalf("seed room %q: %v", room.Name, err)
		}
		log.Printf("  %-15s %-9s %s", room.Name, room.Category, room.ID)
	}

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	clientToken, err := tokens.GenerateToken(1, "client")
	if err != nil {
		log.Fatalf("sign client token: %v", err)
	}
	adminToken, err := tokens.GenerateToken(100, "admin")
	if err != nil {
		log.Fatalf("sign admin token: %v", err)
	}

	fmt.Println()
	fmt.Println("Dev tokens (valid for", cfg.JWTTTL, "):")
	fmt.Println("  client user_id=1:  ", clientToken)
	fmt.Println("  admin  user_id=100:", adminToken)
}
