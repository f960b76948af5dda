package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
)

type check struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

type HealthCtrl struct {
	db      *gorm.DB
	started time.Time
	timeout time.Duration
}

func NewHealthCtrl(db *gorm.DB) *HealthCtrl {
	return &HealthCtrl{db: db, started: time.Now(), timeout: 800 * time.Millisecond}
}

// Health reports 503 when the database cannot be reached or the schema has
// not been migrated.
func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	checks := map[string]check{
		"database": h.ping(ctx),
		"schema":   h.schema(),
	}
	ok := true
	for _, ch := range checks {
		ok = ok && ch.OK
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, echo.Map{
		"status":     echo.Map{"ok": ok},
		"uptime_sec": int(time.Since(h.started).Seconds()),
		"checks":     checks,
		"time":       time.Now().Format(time.RFC3339),
	})
}

func (h *HealthCtrl) ping(ctx context.Context) check {
	if h.db == nil {
		return check{Err: "gorm db is nil"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return check{Err: "db.DB(): " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return check{Err: "ping: " + err.Error()}
	}
	return check{OK: true}
}

func (h *HealthCtrl) schema() check {
	if h.db == nil {
		return check{Err: "gorm db is nil"}
	}
	m := h.db.Migrator()
	for _, model := range []any{&entities.Project{}, &entities.Location{}, &entities.Sensor{}} {
		if !m.HasTable(model) {
			return check{Err: "missing tables; migrations have not run"}
		}
	}
	return check{OK: true}
}
