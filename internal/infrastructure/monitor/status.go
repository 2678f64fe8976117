package monitor

import "time"

type Status struct {
	StoreDriver string    `json:"store_driver"`
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Outbox      bool      `json:"outbox"`
	OutboxSize  int       `json:"outbox_size"`
	LastCheck   time.Time `json:"last_check"`
}
