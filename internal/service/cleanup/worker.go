package cleanup

import (
	"log"
	"time"

	"github.com/avolkov/gemrush/backend/internal/game"
)

const (
	sweepInterval = 1 * time.Minute
	maxRoomIdle   = 5 * time.Minute
)

// Worker periodically drops abandoned rooms from the directory. Rooms
// that started a round remove themselves on end; this catches Waiting
// rooms whose sole player left before a round began.
type Worker struct {
	Directory *game.Directory
}

func NewWorker(d *game.Directory) *Worker {
	return &Worker{Directory: d}
}

// Start initiates the background ticker
func (w *Worker) Start() {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		for range ticker.C {
			if dropped := w.Directory.Sweep(maxRoomIdle); dropped > 0 {
				log.Printf("[CLEANUP] Removed %d abandoned rooms", dropped)
			}
		}
	}()
	log.Println("[CLEANUP] Background worker started")
}
